package domain

import "context"

// SendOptions - параметры доставки одного сообщения.
type SendOptions struct {
	ParseMode           string
	DisableNotification bool
}

// Message - сообщение, которое рассылается списку получателей.
type Message struct {
	Text    string
	Options SendOptions
}

// DispatchResult - итог одной рассылки. Успех или неудача всей рассылки
// не определяются, есть только счетчики по получателям.
type DispatchResult struct {
	SentCount          int
	FailedCount        int
	FailedRecipientIDs []string
}

// Merge суммирует результаты нескольких рассылок.
func (r *DispatchResult) Merge(other DispatchResult) {
	r.SentCount += other.SentCount
	r.FailedCount += other.FailedCount
	r.FailedRecipientIDs = append(r.FailedRecipientIDs, other.FailedRecipientIDs...)
}

// Transport определяет контракт шлюза доставки сообщений.
type Transport interface {
	Send(ctx context.Context, recipientID, text string, opts SendOptions) error
}

// Dispatcher рассылает сообщение списку получателей с изоляцией ошибок.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message, recipients []string) DispatchResult
}
