package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	// fits a 1000-rune comment of 4-byte runes, escaped, plus the envelope
	wsMaxFrame  = 16 << 10
	wsSendQueue = 32
)

const (
	frameJoin   = "JoinBookGroup"
	frameLeave  = "LeaveBookGroup"
	frameReview = "SubmitReview"
)

var (
	errSendQueueFull = errors.New("send queue full")
	errClientClosed  = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type clientFrame struct {
	Type    string `json:"type"`
	BookID  string `json:"bookId"`
	IsLike  bool   `json:"isLike"`
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

// wsClient is one hub connection. Frames are queued to a single writer goroutine.
type wsClient struct {
	id    string
	ident auth.Identity
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
}

func newWSClient(conn *websocket.Conn, ident auth.Identity) *wsClient {
	return &wsClient{
		id:    uuid.NewString(),
		ident: ident,
		conn:  conn,
		send:  make(chan []byte, wsSendQueue),
		done:  make(chan struct{}),
	}
}

func (cl *wsClient) ID() string { return cl.id }

// Send never blocks: a full queue fails the send.
func (cl *wsClient) Send(e hub.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}
	select {
	case <-cl.done:
		return errClientClosed
	default:
	}
	select {
	case cl.send <- b:
		return nil
	default:
		return errSendQueueFull
	}
}

func (cl *wsClient) close() {
	cl.once.Do(func() { close(cl.done) })
}

func (cl *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			_ = cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		}
	}
}

// Hub upgrades to the push channel. The caller is identified by a bearer token
// (header or access_token query) or by the page session cookie.
func (h *Handler) Hub(c echo.Context) error {
	ident, ok := h.hubIdentity(c.Request())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Debug("hub upgrade", zap.Error(err))
		return nil
	}
	cl := newWSClient(conn, ident)
	h.log.Debug("hub connected", zap.String("conn", cl.id), zap.String("user", ident.UserID.String()))

	go cl.writeLoop()
	h.readLoop(c.Request().Context(), cl)
	return nil
}

func (h *Handler) hubIdentity(r *http.Request) (auth.Identity, bool) {
	token := r.URL.Query().Get("access_token")
	if header := r.Header.Get(md.AuthorizationHeader); header != "" {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token != "" {
		id, err := h.tokens.Parse(token)
		return id, err == nil
	}
	return h.sessions.Peek(r)
}

func (h *Handler) readLoop(ctx context.Context, cl *wsClient) {
	defer func() {
		for _, bookID := range h.groups.Drop(cl) {
			h.publish(ctx, bookID, hub.ViewerEvent(hub.ViewerLeft, cl.ident.UserID.String(), cl.id))
		}
		cl.close()
		h.log.Debug("hub disconnected", zap.String("conn", cl.id))
	}()

	cl.conn.SetReadLimit(wsMaxFrame)
	_ = cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("hub read", zap.String("conn", cl.id), zap.Error(err))
			}
			return
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			h.log.Debug("hub frame", zap.String("conn", cl.id), zap.Error(err))
			continue
		}
		h.handleFrame(ctx, cl, f)
	}
}

func (h *Handler) handleFrame(ctx context.Context, cl *wsClient, f clientFrame) {
	bookID, err := uuid.Parse(f.BookID)
	if err != nil {
		if f.Type == frameReview {
			_ = cl.Send(hub.ErrorEvent("invalid book id"))
		}
		return
	}
	group := bookID.String()

	switch f.Type {
	case frameJoin:
		h.groups.Join(group, cl)
		h.publish(ctx, group, hub.ViewerEvent(hub.ViewerJoined, cl.ident.UserID.String(), cl.id))
	case frameLeave:
		h.groups.Leave(group, cl)
		h.publish(ctx, group, hub.ViewerEvent(hub.ViewerLeft, cl.ident.UserID.String(), cl.id))
	case frameReview:
		_, err := h.svc.SubmitReview(ctx, cl.ident, model.ReviewRequest{
			BookID:  bookID,
			IsLike:  f.IsLike,
			Comment: f.Comment,
			Rating:  f.Rating,
		})
		if err == nil {
			return
		}
		msg := err.Error()
		if !isUserError(err) {
			h.log.Error("hub review", zap.String("conn", cl.id), zap.Error(err))
			msg = "could not submit the review"
		}
		if sendErr := cl.Send(hub.ErrorEvent(msg)); sendErr != nil {
			h.log.Debug("hub review error", zap.String("conn", cl.id), zap.Error(sendErr))
		}
	default:
		h.log.Debug("hub frame type", zap.String("conn", cl.id), zap.String("type", f.Type))
	}
}

func (h *Handler) publish(ctx context.Context, bookID string, e hub.Event) {
	if err := h.groups.Publish(ctx, bookID, e); err != nil {
		h.log.Debug("hub publish", zap.String("book", bookID), zap.Error(err))
	}
}
