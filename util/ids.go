package util

import (
	"time"

	"github.com/google/uuid"
)

func NewId() string {
	return uuid.New().String()
}

func NowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
