package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/internal/application/calculation"
	"github.com/turtacn/MolDescriptor/internal/config"
	"github.com/turtacn/MolDescriptor/internal/domain/descriptor/builtin"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/toolkit"
	httpserver "github.com/turtacn/MolDescriptor/internal/interfaces/http"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/handlers"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// newServerClient runs the real router over an in-process service with no
// backends configured.
func newServerClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	svc, err := calculation.NewService(config.CalculatorConfig{Workers: 2}, builtin.NewRegistry(), toolkit.New(nil), nil)
	require.NoError(t, err)
	server := httptest.NewServer(httpserver.NewRouter(httpserver.RouterConfig{
		CalculationHandler: handlers.NewCalculationHandler(svc, nil),
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, append([]Option{WithRetryMax(0)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestDescriptors_Calculate(t *testing.T) {
	c := newServerClient(t)

	resp, err := c.Descriptors().Calculate(context.Background(), &descriptor.CalculateRequest{
		Molecules:   []molecule.MoleculeInput{{ID: "butane", SMILES: "CCCC"}},
		Descriptors: []string{"WienerIndex", "Diameter"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"WPath", "WPol", "Diameter"}, resp.Table.ColumnNames())
	require.Len(t, resp.Table.Rows, 1)

	row := resp.Table.Rows[0]
	assert.Equal(t, "butane", row.MoleculeID)
	wpath, _ := row.Get("WPath")
	assert.Equal(t, float64(10), wpath.Float64())
	wpol, _ := row.Get("WPol")
	assert.Equal(t, float64(1), wpol.Float64())
	diameter, _ := row.Get("Diameter")
	assert.Equal(t, float64(3), diameter.Float64())
}

func TestDescriptors_CalculateSMILES_FailedRow(t *testing.T) {
	c := newServerClient(t)

	resp, err := c.Descriptors().CalculateSMILES(context.Background(), []string{"C1CC", "O"}, "Radius")
	require.NoError(t, err)
	require.Len(t, resp.Table.Rows, 2)
	assert.True(t, resp.Table.Rows[0].Failed())

	// A single heavy atom has no defined radius.
	radius, ok := resp.Table.Rows[1].Get("Radius")
	require.True(t, ok)
	assert.True(t, radius.IsNaN())
}

func TestDescriptors_CalculateSMILES_DefaultSelection(t *testing.T) {
	c := newServerClient(t, WithDefaultDescriptors("Diameter", "WPath"))
	ctx := context.Background()

	resp, err := c.Descriptors().CalculateSMILES(ctx, []string{"CCCC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Diameter", "WPath"}, resp.Table.ColumnNames())

	resp, err = c.Descriptors().CalculateSMILES(ctx, []string{"CCCC"}, "Radius")
	require.NoError(t, err)
	assert.Equal(t, []string{"Radius"}, resp.Table.ColumnNames())
}

func TestDescriptors_Validation(t *testing.T) {
	c := newServerClient(t)
	ctx := context.Background()

	_, err := c.Descriptors().Calculate(ctx, &descriptor.CalculateRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = c.Descriptors().MoleculeResults(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = c.Descriptors().Similar(ctx, &descriptor.SimilarRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = c.Descriptors().CalculateSMILES(ctx, []string{"C"}, "NoSuchDescriptor")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, string(errors.ErrCodeUnknownDescriptor), apiErr.Code)
}

func TestDescriptors_List(t *testing.T) {
	c := newServerClient(t)

	infos, err := c.Descriptors().List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	assert.Equal(t, "C1SP1", infos[0].Name)
}

func TestDescriptors_BackendsUnavailable(t *testing.T) {
	c := newServerClient(t)
	ctx := context.Background()

	_, err := c.Descriptors().MoleculeResults(ctx, "ethanol")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnavailable())

	_, err = c.Descriptors().Similar(ctx, &descriptor.SimilarRequest{SMILES: "CCO", TopK: 3})
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnavailable())
}

//Personal.AI order the ending
