package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"mulita/internal/apierror"
	"mulita/internal/model"
	"mulita/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DatosFiscalesService manages the user's single tax-identity record:
// validated on every write, created on first checkout, updated in place on
// later ones.
type DatosFiscalesService interface {
	Upsert(ctx context.Context, usuarioID uuid.UUID, razonSocial, cuitCuil string) (*model.DatosFiscales, error)
	ObtenerPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error)
}

type datosFiscalesService struct {
	repo repository.DatosFiscalesRepository
}

func NewDatosFiscalesService(repo repository.DatosFiscalesRepository) DatosFiscalesService {
	return &datosFiscalesService{repo: repo}
}

// razonSocialRx admits letters (diacritics included), digits, spaces and ,.()-
var razonSocialRx = regexp.MustCompile(`^[\p{L}\p{N} ,.()\-]+$`)

// cuitWeights is the AFIP mod-11 coefficient table for positions 0–9.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidarRazonSocial checks the legal-name format: trimmed length >= 3 and a
// restricted character set.
func ValidarRazonSocial(razonSocial string) bool {
	trimmed := strings.TrimSpace(razonSocial)
	if len([]rune(trimmed)) < 3 {
		return false
	}
	return razonSocialRx.MatchString(trimmed)
}

// ValidarCUIT verifies an 11-digit CUIT/CUIL: weighted sum over the first ten
// digits, modulo 11; verifier is 0 for remainder 0, 9 for remainder 1, else
// 11 - remainder, and must equal the last digit.
func ValidarCUIT(cuit string) bool {
	if len(cuit) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 11; i++ {
		if cuit[i] < '0' || cuit[i] > '9' {
			return false
		}
		if i < 10 {
			sum += int(cuit[i]-'0') * cuitWeights[i]
		}
	}
	verificador := 0
	switch resto := sum % 11; resto {
	case 0:
		verificador = 0
	case 1:
		verificador = 9
	default:
		verificador = 11 - resto
	}
	return int(cuit[10]-'0') == verificador
}

// ValidarDatosFiscales runs both field checks and returns a field→message map,
// empty when everything passes. Checkout reuses it during its pre-write
// validation phase.
func ValidarDatosFiscales(razonSocial, cuitCuil string) map[string]string {
	fields := make(map[string]string)
	if !ValidarRazonSocial(razonSocial) {
		fields["razon_social"] = "Razon social invalida: minimo 3 caracteres, solo letras, numeros, espacios y ,.()-"
	}
	if !ValidarCUIT(cuitCuil) {
		fields["cuit_cuil"] = "CUIT/CUIL invalido: deben ser 11 digitos con verificador correcto"
	}
	return fields
}

func (s *datosFiscalesService) Upsert(ctx context.Context, usuarioID uuid.UUID, razonSocial, cuitCuil string) (*model.DatosFiscales, error) {
	if fields := ValidarDatosFiscales(razonSocial, cuitCuil); len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	razonSocial = strings.TrimSpace(razonSocial)

	existing, err := s.repo.FindByUsuarioID(ctx, usuarioID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		df := &model.DatosFiscales{
			UsuarioID:   usuarioID,
			RazonSocial: razonSocial,
			CuitCuil:    cuitCuil,
		}
		if err := s.repo.Create(ctx, df); err != nil {
			return nil, apierror.New(apierror.KindDependency, "No se pudieron guardar los datos fiscales")
		}
		return df, nil
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron leer los datos fiscales")
	}

	existing.RazonSocial = razonSocial
	existing.CuitCuil = cuitCuil
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron actualizar los datos fiscales")
	}
	return existing, nil
}

func (s *datosFiscalesService) ObtenerPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error) {
	df, err := s.repo.FindByUsuarioID(ctx, usuarioID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Datos fiscales no encontrados")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron leer los datos fiscales")
	}
	return df, nil
}
