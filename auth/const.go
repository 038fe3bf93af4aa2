package auth

const (
	constPrivateKeyHeader = "PRIVATE KEY"
	constPublicKeyHeader  = "PUBLIC KEY"

	constIssuer        = "mattermost-update-notifier"
	constDefaultExpiry = 24 * 60 * 60 // seconds
)
