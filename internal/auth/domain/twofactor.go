package domain

// TwoFactorEnrollment is handed to the user once, during setup.
type TwoFactorEnrollment struct {
	Secret  string // base32 TOTP seed
	URI     string // otpauth://totp/... provisioning URI
	Image   string // data:image/png;base64,... QR code of URI
	Issuer  string
	Account string
}
