package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// PostgresSelectionStore implements the store.SelectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSelectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSelectionStore creates a new PostgreSQL implementation of the SelectionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSelectionStore(db store.DBTX, logger *slog.Logger) *PostgresSelectionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSelectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "selection_store")),
	}
}

// Ensure PostgresSelectionStore implements store.SelectionStore interface
var _ store.SelectionStore = (*PostgresSelectionStore)(nil)

// Upsert implements store.SelectionStore.Upsert
// The unique constraint over (user_id, template_id, selection_type) makes
// repeated opt-ins update the existing row instead of duplicating it.
func (s *PostgresSelectionStore) Upsert(ctx context.Context, selection *domain.RecurringSelection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := selection.Validate(); err != nil {
		log.Warn("selection validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("selection_id", selection.ID.String()))
		return err
	}

	query := `
		INSERT INTO recurring_selections (id, user_id, template_id,
			selection_type, selected_days, is_active, selected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, template_id, selection_type)
		DO UPDATE SET
			selected_days = EXCLUDED.selected_days,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		selection.ID,
		selection.UserID,
		selection.TemplateID,
		selection.Type,
		selection.SelectedDays.String(),
		selection.IsActive,
		selection.SelectedAt,
		selection.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during selection upsert",
				slog.String("error", err.Error()),
				slog.String("user_id", selection.UserID.String()),
				slog.String("template_id", selection.TemplateID.String()))
			return fmt.Errorf("%w: referenced user or template not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to upsert selection",
			slog.String("error", err.Error()),
			slog.String("user_id", selection.UserID.String()),
			slog.String("template_id", selection.TemplateID.String()))
		return MapError(err)
	}

	log.Info("selection upserted",
		slog.String("user_id", selection.UserID.String()),
		slog.String("template_id", selection.TemplateID.String()),
		slog.String("selection_type", string(selection.Type)),
		slog.Bool("is_active", selection.IsActive))
	return nil
}

// FindActiveByTemplate implements store.SelectionStore.FindActiveByTemplate
func (s *PostgresSelectionStore) FindActiveByTemplate(
	ctx context.Context,
	templateID uuid.UUID,
	selType domain.SelectionType,
) ([]*domain.RecurringSelection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, template_id, selection_type, selected_days,
			is_active, selected_at, updated_at
		FROM recurring_selections
		WHERE template_id = $1 AND selection_type = $2 AND is_active = TRUE
		ORDER BY selected_at
	`

	selections, err := s.querySelections(ctx, query, templateID, selType)
	if err != nil {
		log.Error("failed to find active selections",
			slog.String("error", err.Error()),
			slog.String("template_id", templateID.String()))
		return nil, err
	}

	log.Debug("found active selections",
		slog.String("template_id", templateID.String()),
		slog.Int("count", len(selections)))
	return selections, nil
}

// FindByUser implements store.SelectionStore.FindByUser
func (s *PostgresSelectionStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RecurringSelection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, template_id, selection_type, selected_days,
			is_active, selected_at, updated_at
		FROM recurring_selections
		WHERE user_id = $1
		ORDER BY selected_at
	`

	selections, err := s.querySelections(ctx, query, userID)
	if err != nil {
		log.Error("failed to find selections by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return selections, nil
}

// Get implements store.SelectionStore.Get
// Returns store.ErrSelectionNotFound if no selection exists for the triple.
func (s *PostgresSelectionStore) Get(
	ctx context.Context,
	userID, templateID uuid.UUID,
	selType domain.SelectionType,
) (*domain.RecurringSelection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, template_id, selection_type, selected_days,
			is_active, selected_at, updated_at
		FROM recurring_selections
		WHERE user_id = $1 AND template_id = $2 AND selection_type = $3
	`

	selection, err := scanSelection(s.db.QueryRowContext(ctx, query, userID, templateID, selType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("selection not found",
				slog.String("user_id", userID.String()),
				slog.String("template_id", templateID.String()))
			return nil, store.ErrSelectionNotFound
		}
		log.Error("failed to get selection",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("template_id", templateID.String()))
		return nil, MapError(err)
	}

	return selection, nil
}

// WithTx implements store.SelectionStore.WithTx
// It returns a new SelectionStore instance that uses the provided transaction.
func (s *PostgresSelectionStore) WithTx(tx *sql.Tx) store.SelectionStore {
	return &PostgresSelectionStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresSelectionStore) querySelections(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*domain.RecurringSelection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	selections := []*domain.RecurringSelection{}
	for rows.Next() {
		selection, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		selections = append(selections, selection)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return selections, nil
}

func scanSelection(row rowScanner) (*domain.RecurringSelection, error) {
	var selection domain.RecurringSelection
	var selType, selectedDays string

	err := row.Scan(
		&selection.ID,
		&selection.UserID,
		&selection.TemplateID,
		&selType,
		&selectedDays,
		&selection.IsActive,
		&selection.SelectedAt,
		&selection.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	selection.Type = domain.SelectionType(selType)

	days, err := domain.ParseWeekdaySet(selectedDays)
	if err != nil {
		return nil, fmt.Errorf("invalid selected days in storage: %w", err)
	}
	selection.SelectedDays = days

	return &selection, nil
}
