package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
	"product-catalog-client/internal/transport"
)

// SaveLocal validates d and appends it to the local store.
func (c *Coordinator) SaveLocal(ctx context.Context, d domain.Draft) (*domain.LocalProductRecord, error) {
	d = cloneDraft(d)
	d.Type = d.ProductType()

	rec, err := c.validatedRecord(d)
	if err == nil {
		err = c.store.Create(ctx, rec)
	}
	if err != nil {
		c.report(err, "")
		return nil, err
	}

	c.logger.Debug("draft saved locally", zap.Int64("record_id", rec.ID))
	c.report(nil, fmt.Sprintf("Saved %q locally", rec.Name))
	return rec, nil
}

// LocalRecords lists the local store. On failure it returns an empty list with the
// error, which is also shown as the error message.
func (c *Coordinator) LocalRecords(ctx context.Context) ([]domain.LocalProductRecord, error) {
	records, err := c.store.ListAll(ctx)
	if err != nil {
		c.logger.Warn("local store unreadable", zap.Error(err))
		c.mu.Lock()
		c.clearMessagesLocked()
		c.state.ErrorMessage = domainerrors.UserMessage(err)
		st := c.commitLocked()
		c.mu.Unlock()
		c.publish(st)
		return []domain.LocalProductRecord{}, err
	}
	return records, nil
}

// DeleteLocal removes one local record. Unknown ids are not an error.
func (c *Coordinator) DeleteLocal(ctx context.Context, recordID int64) error {
	if err := c.store.Delete(ctx, recordID); err != nil {
		c.report(err, "")
		return err
	}
	c.report(nil, "Local product deleted")
	return nil
}

func (c *Coordinator) validatedRecord(d domain.Draft) (*domain.LocalProductRecord, error) {
	if err := c.validator.Validate(d); err != nil {
		return nil, err
	}
	return recordFromDraft(d)
}

// report replaces both messages with the outcome of one synchronous operation.
func (c *Coordinator) report(err error, success string) {
	c.mu.Lock()
	c.clearMessagesLocked()
	if err != nil {
		c.state.ErrorMessage = domainerrors.UserMessage(err)
	} else {
		c.state.SuccessMessage = success
	}
	st := c.commitLocked()
	c.mu.Unlock()
	c.publish(st)
}

func recordFromDraft(d domain.Draft) (*domain.LocalProductRecord, error) {
	price, err := d.ParsedPrice()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "price is not a number")
	}
	tax, err := d.ParsedTax()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "tax is not a number")
	}
	rec := &domain.LocalProductRecord{
		Name:  d.Name,
		Type:  d.ProductType(),
		Price: price,
		Tax:   tax,
	}
	if d.Image != nil && len(d.Image.Data) > 0 {
		rec.Image = d.Image.Data
		rec.ImageType = transport.ImageContentType(d.Image)
	}
	return rec, nil
}
