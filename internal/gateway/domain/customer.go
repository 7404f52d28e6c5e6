package domain

import "time"

type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeCorporate  CustomerType = "corporate"
)

func (t CustomerType) Valid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeCorporate
}

type Customer struct {
	ID           string       `db:"id" json:"id"`
	CustomerCode string       `db:"customer_code" json:"customer_code"`
	Name         string       `db:"name" json:"name"`
	NameKana     string       `db:"name_kana" json:"name_kana"`
	CustomerType CustomerType `db:"customer_type" json:"customer_type"`
	Email        string       `db:"email" json:"email"`
	Phone        string       `db:"phone" json:"phone"`
	PostalCode   string       `db:"postal_code" json:"postal_code"`
	Prefecture   string       `db:"prefecture" json:"prefecture"`
	City         string       `db:"city" json:"city"`
	AddressLine1 string       `db:"address_line1" json:"address_line1"`
	AddressLine2 string       `db:"address_line2" json:"address_line2"`
	BirthDate    string       `db:"birth_date" json:"birth_date"`
	Gender       string       `db:"gender" json:"gender"`
	Notes        string       `db:"notes" json:"notes"`
	OwnerUserID  string       `db:"owner_user_id" json:"owner_user_id"`
	TeamID       string       `db:"team_id" json:"team_id"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CustomerSearch is a substring search over name, code and kana.
type CustomerSearch struct {
	Query  string
	Limit  int
	Filter RowFilter
}
