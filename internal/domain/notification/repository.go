package notification

import "context"

// Repository stores notifications per student.
type Repository interface {
	// Save stores n.
	Save(ctx context.Context, n *Notification) error

	// ListByStudent returns the student's notifications newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*Notification, error)

	// MarkRead marks one notification as read. It returns
	// ErrNotificationNotFound when the id does not belong to the student.
	MarkRead(ctx context.Context, studentID string, id NotificationID) error
}
