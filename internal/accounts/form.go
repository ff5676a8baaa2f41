package accounts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

const maxFormMemory = 8 << 20

// Profile holds the text fields shared by both account kinds. Nil means the
// field was not sent. About is informacion for stores and descripcion for
// suppliers.
type Profile struct {
	Name         *string
	Email        *string
	PasswordHash *string
	About        *string
	Latitude     *string
	Longitude    *string
	Contact      *string
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// readProfile reads the text fields of an already parsed form and hashes
// contrasenia when present.
func readProfile(r *http.Request, aboutField string) (Profile, error) {
	p := Profile{
		Name:      formValue(r, "nombre"),
		Email:     formValue(r, "correo"),
		About:     formValue(r, aboutField),
		Latitude:  formValue(r, "latitud"),
		Longitude: formValue(r, "longitud"),
		Contact:   formValue(r, "contacto"),
	}

	if secret := formValue(r, "contrasenia"); secret != nil {
		digest, err := auth.HashPassword(*secret)
		if err != nil {
			return Profile{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = &digest
	}

	return p, nil
}

func (p Profile) requireSignupFields() error {
	if p.Name == nil || p.Email == nil || p.PasswordHash == nil {
		return fmt.Errorf("%w: nombre, correo y contrasenia son obligatorios", domain.ErrValidation)
	}
	return nil
}

func formValue(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.PostFormValue(key))
	if v == "" {
		return nil
	}
	return &v
}
