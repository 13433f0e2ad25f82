package model

// Credential is the OAuth token bundle returned by the provider's token
// endpoint. It is persisted solely as the value of the browser cookie;
// there is no server-side copy.
type Credential struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	SubjectGID   string `json:"subject_gid,omitempty"`
}

// UserProfile is the read-only view of the provider user record returned
// by auth status checks. It is recomputed on every check, never stored.
type UserProfile struct {
	GID   string `json:"gid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}
