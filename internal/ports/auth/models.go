package auth

// Claims representa la información extraída del token del host.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}
