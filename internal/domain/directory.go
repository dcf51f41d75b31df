package domain

// DirectoryUser is a dashboard user as returned by the admin user
// directory. Only the fields the provisioning flow needs are mapped.
type DirectoryUser struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
