package domain

// ActorType distinguishes the two kinds of accounts that can log in.
type ActorType string

const (
	ActorStore    ActorType = "negocio"
	ActorSupplier ActorType = "empresa"
)

func (t ActorType) Valid() bool {
	return t == ActorStore || t == ActorSupplier
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   int64
	Type ActorType
}

// Store is a negocio account. Photo is rendered as a data URL when present.
type Store struct {
	ID          int64   `json:"id_negocio"`
	Name        string  `json:"nombre"`
	Email       string  `json:"correo"`
	Information *string `json:"informacion"`
	Latitude    *string `json:"latitud"`
	Longitude   *string `json:"longitud"`
	Contact     *string `json:"contacto"`
	Photo       *string `json:"foto"`
}

// Supplier is an empresa account.
type Supplier struct {
	ID          int64   `json:"id_empresa"`
	Name        string  `json:"nombre"`
	Email       string  `json:"correo"`
	Description *string `json:"descripcion"`
	Latitude    *string `json:"latitud"`
	Longitude   *string `json:"longitud"`
	Contact     *string `json:"contacto"`
	Logo        *string `json:"logo"`
	PaymentQR   *string `json:"QR_pago"`
}

// Credentials is the subset of an account needed to authenticate it.
type Credentials struct {
	ID           int64
	PasswordHash string
}
