package domain

// AdAccount is read-only reference data about a billable platform account.
type AdAccount struct {
	ID          string
	Name        string
	Currency    string
	CountryCode string
}

// Interest is one entry of the platform's targeting taxonomy.
type Interest struct {
	ID   string
	Name string
}
