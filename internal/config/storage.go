package config

// FormatSQLite selects the SQLite backend. Other formats name a document codec.
const FormatSQLite = "sqlite"

type Storage struct {
	// Path of the task document or SQLite database.
	Path string `env:"PATH,expand" envDefault:"tasks.json"`
	// Format forces a backend; empty picks one from the path extension.
	Format string `env:"FORMAT"`
	// Snapshot is an optional file mirrored after every SQLite write.
	Snapshot string `env:"SNAPSHOT,expand"`
}
