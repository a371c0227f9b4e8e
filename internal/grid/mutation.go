package grid

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Las mutaciones se ejecutan en la goroutine del llamante; el bucle sigue
// atendiendo eventos mientras tanto. Solo tras un éxito se encola un único
// refetch, que se resuelve con el QueryState vigente en ese momento.

// Create da de alta una entidad. El id asignado en cliente no se envía.
func (c *Controller[T]) Create(ctx context.Context, entity T) (T, error) {
	const op = "create"
	var zero T

	if err := c.validate(op, entity); err != nil {
		return zero, err
	}

	created, err := c.client.Create(ctx, entity)
	if err != nil {
		return zero, c.fail(op, "", err, "Failed to save "+strings.ToLower(c.singular)+".")
	}

	c.succeed(op, created.GetID(), c.singular+" Created")
	return created, nil
}

// Update guarda una entidad existente. Sin id falla antes de tocar la red.
func (c *Controller[T]) Update(ctx context.Context, entity T) (T, error) {
	const op = "update"
	var zero T

	id := entity.GetID()
	if id == "" {
		return zero, c.invalid(op, ErrMissingID)
	}
	if err := c.validate(op, entity); err != nil {
		return zero, err
	}

	updated, err := c.client.Update(ctx, entity)
	if err != nil {
		return zero, c.fail(op, id, err, "Failed to save "+strings.ToLower(c.singular)+".")
	}

	c.succeed(op, id, c.singular+" Updated")
	return updated, nil
}

// Delete borra una fila por id.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	const op = "delete"

	if strings.TrimSpace(id) == "" {
		return c.invalid(op, ErrMissingID)
	}

	if err := c.client.Delete(ctx, id); err != nil {
		return c.fail(op, id, err, "Failed to delete "+strings.ToLower(c.singular)+".")
	}

	c.succeed(op, id, c.singular+" Deleted")
	return nil
}

// DeleteMany borra la selección. Una selección vacía no llega a la red.
func (c *Controller[T]) DeleteMany(ctx context.Context, ids []string) error {
	const op = "delete-many"

	selected := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		return c.invalid(op, ErrEmptySelection)
	}

	if err := c.client.DeleteMany(ctx, selected); err != nil {
		return c.fail(op, strings.Join(selected, ","), err, "Failed to delete selected "+strings.ToLower(c.plural)+".")
	}

	c.succeed(op, strings.Join(selected, ","), c.plural+" Deleted")
	return nil
}

// IDs extrae los ids de una selección de filas.
func IDs[T Entity](rows []T) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GetID())
	}
	return ids
}

// ---------------- helpers ----------------

func (c *Controller[T]) validate(op string, entity T) error {
	v, ok := any(entity).(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return c.invalid(op, err)
	}
	return nil
}

func (c *Controller[T]) invalid(op string, reason error) error {
	c.log.Warn("Mutation rejected", zap.String("op", op), zap.Error(reason))
	return &ValidationError{Op: op, Reason: reason}
}

func (c *Controller[T]) fail(op, id string, err error, detail string) error {
	terr := &TransportError{Op: op, ID: id, Err: err}
	c.log.Error("Mutation failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
	c.notifier.Notify(errorNotification(detail))
	return terr
}

func (c *Controller[T]) succeed(op, id, detail string) {
	c.log.Info("Mutation applied", zap.String("op", op), zap.String("id", id))
	c.notifier.Notify(successNotification(detail))
	c.post(refetchRequested{op: op})
}
