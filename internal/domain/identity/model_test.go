package identity

import (
	"testing"
	"time"
)

func TestPatientFullName(t *testing.T) {
	p := &Patient{GivenName: "Juan", PaternalSurname: "Perez", MaternalSurname: "Lopez"}
	if got := p.FullName(); got != "Juan Perez Lopez" {
		t.Errorf("expected full name, got %q", got)
	}

	p2 := &Patient{GivenName: "Ana", PaternalSurname: "Diaz"}
	if got := p2.FullName(); got != "Ana Diaz" {
		t.Errorf("expected name without maternal surname, got %q", got)
	}
}

func TestPatientAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	birth := time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC)
	p := &Patient{BirthDate: &birth}
	if got := p.Age(now); got != 35 {
		t.Errorf("expected 35 the day before the birthday, got %d", got)
	}

	birth2 := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	p2 := &Patient{BirthDate: &birth2}
	if got := p2.Age(now); got != 36 {
		t.Errorf("expected 36 on the birthday, got %d", got)
	}

	p3 := &Patient{}
	if got := p3.Age(now); got != -1 {
		t.Errorf("expected -1 for unknown birth date, got %d", got)
	}
}
