package client

import (
	"context"
	"net/url"

	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// DescriptorsClient calls the synchronous descriptor endpoints.
type DescriptorsClient struct {
	client *Client
}

// Calculate runs the selected descriptors over every molecule in req.
// Molecules that fail are reported in their rows.
func (d *DescriptorsClient) Calculate(ctx context.Context, req *descriptor.CalculateRequest) (*descriptor.CalculateResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid calculate request")
	}
	var resp descriptor.CalculateResponse
	if err := d.client.post(ctx, "/api/v1/descriptors/calculate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CalculateSMILES is Calculate over bare SMILES strings. With no descriptors
// named it falls back to WithDefaultDescriptors.
func (d *DescriptorsClient) CalculateSMILES(ctx context.Context, smiles []string, descriptors ...string) (*descriptor.CalculateResponse, error) {
	if len(descriptors) == 0 {
		descriptors = d.client.defaultDescriptors
	}
	return d.Calculate(ctx, &descriptor.CalculateRequest{SMILES: smiles, Descriptors: descriptors})
}

// List returns the descriptor catalogue.
func (d *DescriptorsClient) List(ctx context.Context) ([]descriptor.DescriptorInfo, error) {
	var resp struct {
		Descriptors []descriptor.DescriptorInfo `json:"descriptors"`
	}
	if err := d.client.get(ctx, "/api/v1/descriptors", &resp); err != nil {
		return nil, err
	}
	return resp.Descriptors, nil
}

// MoleculeResults returns the persisted row of a molecule.
func (d *DescriptorsClient) MoleculeResults(ctx context.Context, moleculeID string) (*descriptor.Row, error) {
	if moleculeID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "molecule id is required")
	}
	var row descriptor.Row
	if err := d.client.get(ctx, "/api/v1/molecules/"+url.PathEscape(moleculeID)+"/descriptors", &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// Similar returns the indexed molecules nearest to req.SMILES in descriptor
// space.
func (d *DescriptorsClient) Similar(ctx context.Context, req *descriptor.SimilarRequest) ([]descriptor.SimilarHit, error) {
	if req == nil || req.SMILES == "" {
		return nil, errors.New(errors.ErrCodeValidation, "smiles is required")
	}
	var resp struct {
		Hits []descriptor.SimilarHit `json:"hits"`
	}
	if err := d.client.post(ctx, "/api/v1/descriptors/similar", req, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

//Personal.AI order the ending
