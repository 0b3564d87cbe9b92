package upload

import (
	"context"
	"net/url"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/logging"
)

type Result struct {
	Message string       `json:"message"`
	PlanID  apiclient.ID `json:"plan_id"`
}

// Submitter sends drafts to the backend.
type Submitter struct {
	client *apiclient.Client
	open   Opener
}

func NewSubmitter(client *apiclient.Client, open Opener) *Submitter {
	return &Submitter{client: client, open: open}
}

// Create uploads a new plan.
func (s *Submitter) Create(ctx context.Context, d *Draft) (*Result, error) {
	return s.send(ctx, "create", "/plans/upload", false, d)
}

// Update edits a plan the designer owns.
func (s *Submitter) Update(ctx context.Context, planID string, d *Draft) (*Result, error) {
	return s.send(ctx, "update", "/plans/"+url.PathEscape(planID), true, d)
}

// AdminUpdate edits any plan through the admin endpoint.
func (s *Submitter) AdminUpdate(ctx context.Context, planID string, d *Draft) (*Result, error) {
	return s.send(ctx, "admin_update", "/admin/plans/"+url.PathEscape(planID), true, d)
}

func (s *Submitter) send(ctx context.Context, op, path string, put bool, d *Draft) (*Result, error) {
	enc, err := Encode(d, s.open)
	if err != nil {
		return nil, err
	}
	logging.NewLogger(ctx, s.client.Logger()).LogInfof("upload_"+op, "sending %d bytes to %s", len(enc.Body), path)

	var res Result
	if put {
		err = s.client.PutMultipart(ctx, path, enc.Body, enc.ContentType, &res)
	} else {
		err = s.client.PostMultipart(ctx, path, enc.Body, enc.ContentType, &res)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
