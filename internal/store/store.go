package store

import (
	"database/sql"

	"github.com/dukerupert/kinship/internal/realtime"
)

// Publisher receives a change after each successful mutation.
type Publisher interface {
	Publish(realtime.Change)
}

type scanner interface{ Scan(...any) error }

func publish(p Publisher, c realtime.Change) {
	if p != nil {
		p.Publish(c)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
