package constants

const (
	GetStatusByApiKey = `
	SELECT id, status FROM api_keys WHERE id = ?
	`

	InsertApiKey = `
	INSERT INTO api_keys (id, status) VALUES (?, TRUE)
	`

	RevokeApiKey = `
	UPDATE api_keys SET status = FALSE WHERE id = ?
	`

	CreateApiKeysTable = `
	CREATE TABLE IF NOT EXISTS api_keys (
		id     TEXT PRIMARY KEY,
		status BOOLEAN NOT NULL DEFAULT TRUE
	)
	`
)
