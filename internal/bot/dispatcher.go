package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/observability"
)

const (
	UpdateTimeout = 5 * time.Minute
)

// DispatchMode selects the invocation semantics of a registration.
type DispatchMode int

const (
	// FirstMatch registrations are mutually exclusive: at most one fires per
	// update. Used for commands.
	FirstMatch DispatchMode = iota
	// AllMatch registrations are independent observers: every matching one
	// fires, in priority order. Used for passive concerns.
	AllMatch
)

func (m DispatchMode) String() string {
	if m == FirstMatch {
		return "first_match"
	}
	return "all_match"
}

// Registration is one predicate/handler pair a module adds to the dispatcher.
// Lower priority evaluates first; ties keep registration order. Zero priority
// is the default middle.
type Registration struct {
	Module    string
	Priority  int
	Mode      DispatchMode
	Predicate Predicate
	Handler   HandlerFunc
}

// Gate lets per-chat configuration veto a module's registrations without the
// module knowing. A nil gate admits everything.
type Gate func(ctx context.Context, module string, chatID int64) bool

// Dispatcher routes each update through the registered predicate chains.
// Registrations are fixed after Activate; dispatch order is deterministic for
// a fixed set of registrations.
type Dispatcher struct {
	s     Service
	regs  []Registration
	gate  Gate
	usage UsageRecorder
}

// UsageRecorder observes successful handler invocations, e.g. for per-chat
// usage statistics.
type UsageRecorder func(ctx context.Context, module string, chatID int64)

func NewDispatcher(s Service) *Dispatcher {
	return &Dispatcher{s: s}
}

func (d *Dispatcher) SetGate(gate Gate) {
	d.gate = gate
}

func (d *Dispatcher) SetUsageRecorder(usage UsageRecorder) {
	d.usage = usage
}

// Add appends a registration, keeping the slice sorted by priority with
// registration order preserved within equal priorities.
func (d *Dispatcher) Add(reg Registration) {
	if reg.Predicate == nil || reg.Handler == nil {
		log.WithField("module", reg.Module).Warn("ignoring registration with nil predicate or handler")
		return
	}
	d.regs = append(d.regs, reg)
	sort.SliceStable(d.regs, func(i, j int) bool {
		return d.regs[i].Priority < d.regs[j].Priority
	})
}

// Activate registers every module's predicate/handler pairs.
func (d *Dispatcher) Activate(modules []Module) {
	for _, m := range modules {
		if m == nil {
			continue
		}
		m.Register(d)
	}
}

// Registrations returns a copy of the dispatch table, in evaluation order.
func (d *Dispatcher) Registrations() []Registration {
	out := make([]Registration, len(d.regs))
	copy(out, d.regs)
	return out
}

// Dispatch routes one update. A handler failure or panic is contained here:
// it is logged, counted and optionally surfaced to the operator chat, and
// never prevents sibling handlers or subsequent updates from running.
func (d *Dispatcher) Dispatch(ctx context.Context, u *api.Update) error {
	if u == nil {
		return errors.New("update is nil")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if outdated(u) {
		log.WithField("update_id", u.UpdateID).Debug("skipping outdated update")
		return nil
	}

	chat, user := resolveOrigin(u)

	consumed := false
	for _, reg := range d.regs {
		if consumed && reg.Mode == FirstMatch {
			continue
		}
		if d.gate != nil && chat != nil && !d.gate(ctx, reg.Module, chat.ID) {
			continue
		}
		if !reg.Predicate(u, chat, user) {
			continue
		}

		start := time.Now()
		err := d.invoke(ctx, reg, u, chat, user)
		observability.ObserveDispatch(reg.Module, reg.Mode.String(), time.Since(start), err)
		if err != nil {
			d.reportFailure(reg, chat, err)
		} else if d.usage != nil && chat != nil {
			d.usage(ctx, reg.Module, chat.ID)
		}
		if reg.Mode == FirstMatch {
			consumed = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, reg Registration, u *api.Update, chat *api.Chat, user *api.User) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	return reg.Handler(ctx, u, chat, user)
}

func (d *Dispatcher) reportFailure(reg Registration, chat *api.Chat, err error) {
	entry := log.WithFields(log.Fields{
		"module": reg.Module,
		"mode":   reg.Mode.String(),
	})
	if chat != nil {
		entry = entry.WithField("chat_id", chat.ID)
	}
	entry.WithError(err).Error("handler failed")

	logChatID := d.s.GetConfig().LogChatID
	if logChatID == 0 {
		return
	}
	var location string
	if chat != nil {
		location = fmt.Sprintf(" in chat %d", chat.ID)
	}
	msg := api.NewMessage(logChatID, fmt.Sprintf("⚠️ module %q failed%s: %v", reg.Module, location, err))
	msg.DisableNotification = true
	if _, sendErr := d.s.GetBot().Send(msg); sendErr != nil {
		entry.WithError(sendErr).Warn("cant report failure to log chat")
	}
}

func outdated(u *api.Update) bool {
	var updateTime time.Time
	switch {
	case u.Message != nil:
		updateTime = time.Unix(int64(u.Message.Date), 0)
	case u.EditedMessage != nil:
		updateTime = time.Unix(int64(u.EditedMessage.Date), 0)
	case u.ChannelPost != nil:
		updateTime = time.Unix(int64(u.ChannelPost.Date), 0)
	case u.EditedChannelPost != nil:
		updateTime = time.Unix(int64(u.EditedChannelPost.Date), 0)
	default:
		return false
	}
	return time.Since(updateTime) > UpdateTimeout
}

func resolveOrigin(u *api.Update) (*api.Chat, *api.User) {
	chat := u.FromChat()
	if chat == nil {
		switch {
		case u.ChatJoinRequest != nil:
			chat = &u.ChatJoinRequest.Chat
		case u.MyChatMember != nil:
			chat = &u.MyChatMember.Chat
		case u.ChatMember != nil:
			chat = &u.ChatMember.Chat
		}
	}

	user := u.SentFrom()
	if user == nil {
		switch {
		case u.ChatJoinRequest != nil:
			user = &u.ChatJoinRequest.From
		case u.MyChatMember != nil:
			user = &u.MyChatMember.From
		case u.ChatMember != nil:
			user = &u.ChatMember.From
		}
	}
	return chat, user
}
