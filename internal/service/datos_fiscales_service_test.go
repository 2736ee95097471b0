package service_test

import (
	"context"
	"errors"
	"testing"

	"mulita/internal/apierror"
	"mulita/internal/model"
	"mulita/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fallaDatosFiscalesRepo fuerza un error de base en la lectura del registro.
type fallaDatosFiscalesRepo struct {
	*stubDatosFiscalesRepo
	errFind error
}

func (r *fallaDatosFiscalesRepo) FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error) {
	if r.errFind != nil {
		return nil, r.errFind
	}
	return r.stubDatosFiscalesRepo.FindByUsuarioID(ctx, usuarioID)
}

// ── Tests: ValidarCUIT ────────────────────────────────────────────────────────

func TestValidarCUIT(t *testing.T) {
	cases := []struct {
		cuit  string
		valid bool
	}{
		{"20123456786", true},  // suma 148, resto 5, verificador 6
		{"20123456780", false}, // verificador equivocado
		{"20123456789", false},
		{"2012345678", false},   // 10 digitos
		{"201234567860", false}, // 12 digitos
		{"2012345678X", false},  // letra
		{"20-12345678", false},  // separadores no admitidos
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, service.ValidarCUIT(tc.cuit), "cuit %q", tc.cuit)
	}
}

// ── Tests: ValidarRazonSocial ─────────────────────────────────────────────────

func TestValidarRazonSocial(t *testing.T) {
	cases := []struct {
		razon string
		valid bool
	}{
		{"ACME S.A.", true},
		{"Panadería Ñandú", true}, // diacríticos admitidos
		{"Distribuidora (Sur) S.R.L.", true},
		{"Juan-Perez, hijos", true},
		{"ab", false},      // menos de 3 caracteres
		{"  a  ", false},   // el recorte deja menos de 3
		{"AC@ME", false},   // caracter fuera del set
		{"ACME\tSA", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, service.ValidarRazonSocial(tc.razon), "razon %q", tc.razon)
	}
}

// ── Tests: Upsert ─────────────────────────────────────────────────────────────

func TestUpsertDatosFiscales_CreaYLuegoActualiza(t *testing.T) {
	repo := newStubDatosFiscalesRepo()
	svc := service.NewDatosFiscalesService(repo)
	usuarioID := uuid.New()

	df, err := svc.Upsert(context.Background(), usuarioID, "ACME S.A.", cuitValido)
	require.NoError(t, err)
	primerID := df.ID

	// Segundo upsert: misma fila, datos nuevos.
	df, err = svc.Upsert(context.Background(), usuarioID, "ACME Holding S.A.", cuitValido)
	require.NoError(t, err)
	assert.Equal(t, primerID, df.ID)
	assert.Equal(t, "ACME Holding S.A.", df.RazonSocial)

	got, err := svc.ObtenerPorUsuario(context.Background(), usuarioID)
	require.NoError(t, err)
	assert.Equal(t, "ACME Holding S.A.", got.RazonSocial)
}

func TestUpsertDatosFiscales_RecortaRazonSocial(t *testing.T) {
	svc := service.NewDatosFiscalesService(newStubDatosFiscalesRepo())

	df, err := svc.Upsert(context.Background(), uuid.New(), "  ACME S.A.  ", cuitValido)
	require.NoError(t, err)
	assert.Equal(t, "ACME S.A.", df.RazonSocial)
}

func TestUpsertDatosFiscales_InvalidoDevuelveCampos(t *testing.T) {
	svc := service.NewDatosFiscalesService(newStubDatosFiscalesRepo())

	_, err := svc.Upsert(context.Background(), uuid.New(), "ab", "123")
	require.Error(t, err)

	apiErr := apierror.From(err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidArgument))
	assert.Contains(t, apiErr.Fields, "razon_social")
	assert.Contains(t, apiErr.Fields, "cuit_cuil")
}

func TestUpsertDatosFiscales_FallaDeBase_NoCrea(t *testing.T) {
	repo := &fallaDatosFiscalesRepo{stubDatosFiscalesRepo: newStubDatosFiscalesRepo(), errFind: errors.New("connection refused")}
	svc := service.NewDatosFiscalesService(repo)

	// La lectura falló por la base, no porque el registro no exista: crear
	// aquí podría duplicar la fila.
	_, err := svc.Upsert(context.Background(), uuid.New(), "ACME S.A.", cuitValido)
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindDependency))
	assert.Empty(t, repo.porUser)
}

func TestObtenerDatosFiscales_SinRegistro_NotFound(t *testing.T) {
	svc := service.NewDatosFiscalesService(newStubDatosFiscalesRepo())

	_, err := svc.ObtenerPorUsuario(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}
