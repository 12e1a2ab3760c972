package database

import (
	"database/sql"
	"errors"
	"log"

	_ "github.com/lib/pq"
)

func ConnectDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[DB] Connected to Postgres")
	return db, nil
}
