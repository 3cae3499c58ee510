// Package recurrence implements the recurring task subsystem: opt-in
// selections against recurring templates and the idempotent generation of
// dated task instances from those templates.
//
// Generation never checks for existing instances before inserting; the
// storage layer's uniqueness guarantee over (template, date, assignee) makes
// re-running a generation pass for the same date a no-op.
package recurrence
