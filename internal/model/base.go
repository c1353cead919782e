package model

import (
	"github.com/google/uuid"
)

// assignID fills a zero primary key before insert so records get an ID on
// every driver, including ones without gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
