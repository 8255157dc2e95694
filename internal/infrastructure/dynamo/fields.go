package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail        = "email"
	fieldCode         = "code"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
	fieldAttempts     = "attempts"
	fieldEnable       = "enable"
	fieldState        = "state"
	fieldExpiresAt    = "expires_at"
	fieldName         = "name"
	fieldPhotoURL     = "photo_url"
	fieldPasswordHash = "password_hash"
	fieldProviders    = "providers"
	fieldLastLoginAt  = "last_login_at"
	fieldGoogleSub    = "google_sub"
	fieldVerified     = "email_verified"
)
