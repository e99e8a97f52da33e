package callback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark/soundlink/internal/adapter/mainthread"
	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/logger"
	"github.com/tidemark/soundlink/internal/testutil"
)

func TestCallbackPackage_FunctionVariant(t *testing.T) {
	type userContext struct{ name string }
	ctx := &userContext{name: "weapon-audio"}

	var gotKind domain.CallbackType
	var gotCookie any
	pkg := &CallbackPackage{
		flags:  domain.CallbackMarker,
		kind:   kindFunction,
		fn:     func(kind domain.CallbackType, info *domain.CallbackInfo, cookie any) { gotKind, gotCookie = kind, cookie },
		cookie: ctx,
	}

	info := &domain.CallbackInfo{Cookie: pkg, GameObject: 42, MarkerLabel: "impact"}
	pkg.handleAction(domain.CallbackMarker, info)

	assert.Equal(t, domain.CallbackMarker, gotKind)
	assert.Same(t, ctx, gotCookie, "the user cookie is passed explicitly")
	assert.Same(t, pkg, info.Cookie, "the payload cookie keeps identifying the package")
}

func TestCallbackPackage_DelegateVariant_TranslatesByValue(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dispatcher := mainthread.NewDispatcher(logger.NewTestLogger(), 8)

	delivered := make(chan struct {
		kind domain.EventCallbackKind
		info domain.EventCallbackInfo
	}, 1)

	pkg := &CallbackPackage{
		flags: domain.CallbackMarker,
		kind:  kindDelegate,
		delegate: func(kind domain.EventCallbackKind, info domain.EventCallbackInfo) {
			delivered <- struct {
				kind domain.EventCallbackKind
				info domain.EventCallbackInfo
			}{kind, info}
		},
		main: dispatcher,
	}

	info := &domain.CallbackInfo{
		Cookie:         pkg,
		GameObject:     7,
		Playing:        99,
		EventName:      "door_open",
		MarkerLabel:    "creak",
		MarkerPosition: 120 * time.Millisecond,
	}
	pkg.handleAction(domain.CallbackMarker, info)

	// Mutate the payload after dispatch returns: the marshalled copy must
	// be unaffected because it owns its data by value.
	info.MarkerLabel = "mutated"
	info.EventName = "mutated"

	got := <-delivered
	assert.Equal(t, domain.KindMarker, got.kind)
	assert.Equal(t, domain.GameObjectID(7), got.info.GameObject)
	assert.Equal(t, domain.PlayingID(99), got.info.Playing)
	assert.Equal(t, "door_open", got.info.EventName)
	assert.Equal(t, "creak", got.info.MarkerLabel)
	assert.Equal(t, 120*time.Millisecond, got.info.MarkerPosition)

	dispatcher.Close()
}

func TestCallbackPackage_DelegateVariant_FIFO(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dispatcher := mainthread.NewDispatcher(logger.NewTestLogger(), 16)

	var order []domain.EventCallbackKind
	done := make(chan struct{})

	pkg := &CallbackPackage{
		flags: domain.CallbackStarted | domain.CallbackMarker | domain.CallbackEndOfEvent,
		kind:  kindDelegate,
		delegate: func(kind domain.EventCallbackKind, _ domain.EventCallbackInfo) {
			order = append(order, kind)
			if kind == domain.KindEndOfEvent {
				close(done)
			}
		},
		main: dispatcher,
	}

	info := &domain.CallbackInfo{Cookie: pkg, GameObject: 1}
	pkg.handleAction(domain.CallbackStarted, info)
	pkg.handleAction(domain.CallbackMarker, info)
	pkg.handleAction(domain.CallbackEndOfEvent, info)

	<-done
	dispatcher.Close()

	assert.Equal(t, []domain.EventCallbackKind{domain.KindStarted, domain.KindMarker, domain.KindEndOfEvent}, order)
}

func TestCallbackPackage_LatentVariant(t *testing.T) {
	action := NewEndOfEventAction()
	require.False(t, action.Finished())

	pkg := &CallbackPackage{
		flags:  domain.CallbackEndOfEvent,
		kind:   kindLatent,
		action: action,
	}

	pkg.handleAction(domain.CallbackEndOfEvent, &domain.CallbackInfo{Cookie: pkg, GameObject: 2})
	assert.True(t, action.Finished())

	// Signalling again is harmless.
	pkg.handleAction(domain.CallbackEndOfEvent, &domain.CallbackInfo{Cookie: pkg, GameObject: 2})
	assert.True(t, action.Finished())
}

func TestCallbackPackage_RetireExactlyOnce(t *testing.T) {
	pkg := &CallbackPackage{flags: domain.CallbackEndOfEvent, kind: kindFunction}

	assert.True(t, pkg.retire())
	assert.False(t, pkg.retire(), "second retirement must be rejected")
	assert.True(t, pkg.Retired())
}
