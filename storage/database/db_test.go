package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_createUserQuery(t *testing.T) {
	assert.Equal(t,
		`CREATE USER "comedor" CREATEDB ENCRYPTED PASSWORD 'secret'`,
		createUserQuery("comedor", "secret"),
	)

	// quotes in config values must not break out of the statement
	assert.Equal(t,
		`CREATE USER "we""ird" CREATEDB ENCRYPTED PASSWORD 'p''wd; DROP TABLE x'`,
		createUserQuery(`we"ird`, "p'wd; DROP TABLE x"),
	)
}

func Test_createDBQuery(t *testing.T) {
	assert.Equal(t, `CREATE DATABASE "comedor"`, createDBQuery("comedor"))
	assert.Equal(t, `CREATE DATABASE "come""dor"`, createDBQuery(`come"dor`))
}
