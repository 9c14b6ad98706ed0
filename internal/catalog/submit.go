package catalog

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
	"product-catalog-client/internal/id"
	"product-catalog-client/internal/transport"
)

const (
	defaultSubmitSuccess = "Product added successfully"
	defaultSubmitFailure = "The catalog did not accept the product"
)

// ProductTypes lists the types a draft can pick from.
func (c *Coordinator) ProductTypes() []domain.ProductType {
	return domain.ProductTypes()
}

// UpdateDraft replaces the draft being edited.
func (c *Coordinator) UpdateDraft(d domain.Draft) {
	c.mu.Lock()
	c.state.Draft = cloneDraft(d)
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
}

// SubmitNewProduct validates d and, when it is valid, sends it to the catalog in
// the background. A validation failure is returned and also shown as the error
// message; nothing is sent in that case. On completion a successful submission
// resets the draft, a failed one leaves it for correction.
func (c *Coordinator) SubmitNewProduct(ctx context.Context, d domain.Draft) error {
	d = cloneDraft(d)
	d.Type = d.ProductType()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domainerrors.Internal("catalog: coordinator is closed")
	}
	c.clearMessagesLocked()
	c.state.Draft = d

	req, err := c.submitRequest(d)
	if err != nil {
		c.state.ErrorMessage = domainerrors.UserMessage(err)
		st := c.commitLocked()
		c.mu.Unlock()
		c.publish(st)
		return err
	}

	c.submitting++
	c.state.IsSubmitting = true
	c.wg.Add(1)
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)

	runCtx, cancel := c.operationContext(ctx)
	go func() {
		defer c.wg.Done()
		defer cancel()

		result, err := c.remote.SubmitProduct(runCtx, req)
		if err == nil && result == nil {
			err = domainerrors.DecodingFailure(errors.New("empty add product result"))
		}
		if err == nil && result.Success && c.opts.PersistSubmissions {
			c.persistSubmission(runCtx, req)
		}
		c.finishSubmit(req, result, err)
	}()
	return nil
}

// submitRequest validates d and turns it into the wire request with a fresh submission id.
func (c *Coordinator) submitRequest(d domain.Draft) (transport.SubmitRequest, error) {
	if err := c.validator.Validate(d); err != nil {
		return transport.SubmitRequest{}, err
	}
	price, err := d.ParsedPrice()
	if err != nil {
		return transport.SubmitRequest{}, domainerrors.Wrap(err, domainerrors.CodeValidation, "price is not a number")
	}
	tax, err := d.ParsedTax()
	if err != nil {
		return transport.SubmitRequest{}, domainerrors.Wrap(err, domainerrors.CodeValidation, "tax is not a number")
	}
	return transport.SubmitRequest{
		ID:    id.NewSubmissionID(),
		Name:  d.Name,
		Type:  d.Type,
		Price: price.String(),
		Tax:   tax.String(),
		Image: d.Image,
	}, nil
}

func (c *Coordinator) finishSubmit(req transport.SubmitRequest, result *domain.AddProductResult, err error) {
	c.mu.Lock()
	c.submitting--
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.IsSubmitting = c.submitting > 0
	c.clearMessagesLocked()

	switch {
	case err != nil:
		c.state.ErrorMessage = domainerrors.UserMessage(err)
		c.logger.Warn("submission failed", zap.String("submission_id", req.ID), zap.Error(err))
	case !result.Success:
		c.state.ErrorMessage = messageOr(result.Message, defaultSubmitFailure)
		c.logger.Warn("submission rejected",
			zap.String("submission_id", req.ID),
			zap.String("message", result.Message),
		)
	default:
		c.state.SuccessMessage = messageOr(result.Message, defaultSubmitSuccess)
		c.state.Draft = domain.NewDraft()
		c.logger.Info("submission accepted",
			zap.String("submission_id", req.ID),
			zap.Int64("product_id", result.ProductID),
		)
	}
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
}

// persistSubmission stores an accepted submission, linked by its submission id.
// A storage failure is logged and does not turn the submission into a failure.
func (c *Coordinator) persistSubmission(ctx context.Context, req transport.SubmitRequest) {
	rec, err := recordFromRequest(req)
	if err == nil {
		err = c.store.Create(ctx, rec)
	}
	if err != nil {
		c.logger.Warn("could not record submission locally",
			zap.String("submission_id", req.ID),
			zap.Error(err),
		)
	}
}

func recordFromRequest(req transport.SubmitRequest) (*domain.LocalProductRecord, error) {
	d := domain.Draft{Name: req.Name, Type: req.Type, Price: req.Price, Tax: req.Tax, Image: req.Image}
	rec, err := recordFromDraft(d)
	if err != nil {
		return nil, err
	}
	pid := req.ID
	rec.ProductID = &pid
	return rec, nil
}

func cloneDraft(d domain.Draft) domain.Draft {
	if d.Image != nil {
		img := *d.Image
		img.Data = slices.Clone(img.Data)
		d.Image = &img
	}
	return d
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
