package entities

// ApiKey is a row of api_keys. Revoked keys keep their row with Status false.
type ApiKey struct {
	ID     string `db:"id"`
	Status bool   `db:"status"`
}
