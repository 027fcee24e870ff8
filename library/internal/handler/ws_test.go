package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

type frame struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

func dialHub(t *testing.T, f *fixture, id auth.Identity) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Authorization", f.bearer(t, id))
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/hub", header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var fr frame
	require.NoError(t, jsoniter.Unmarshal(data, &fr))
	return fr
}

func TestHub_JoinReceivesBookEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	conn := dialHub(t, f, member)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "JoinBookGroup", "bookId": bookID.String()}))
	joined := readFrame(t, conn)
	require.Equal(t, "ViewerJoined", joined.Type)
	require.Contains(t, string(joined.Data), member.UserID.String())

	err := f.groups.Publish(context.Background(), bookID.String(), hub.StatsEvent(bookID.String(), model.BookStats{
		TotalReviews:  3,
		AverageRating: 4.3,
		LikesCount:    2,
		DislikesCount: 1,
	}))
	require.NoError(t, err)

	stats := readFrame(t, conn)
	require.Equal(t, "UpdateBookStats", stats.Type)
	require.JSONEq(t,
		`{"bookId":"`+bookID.String()+`","likes":2,"dislikes":1,"totalReviews":3,"averageRating":4.3}`,
		string(stats.Data))
}

func TestHub_ReviewErrorGoesToCallerOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.svc.EXPECT().
		SubmitReview(gomock.Any(), member, model.ReviewRequest{BookID: bookID, IsLike: false, Comment: "meh"}).
		Return(model.ReviewResult{}, errs.ErrNotBorrowed)

	conn := dialHub(t, f, member)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "SubmitReview",
		"bookId":  bookID.String(),
		"isLike":  false,
		"comment": "meh",
	}))

	fr := readFrame(t, conn)
	require.Equal(t, "ReviewError", fr.Type)
	require.JSONEq(t, `{"message":"you can only review books you have borrowed"}`, string(fr.Data))
	require.Zero(t, f.groups.Size(bookID.String()))
}

func TestHub_SubmitReviewWithLongestComment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	comment := strings.Repeat("😀", 1000)
	f.svc.EXPECT().
		SubmitReview(gomock.Any(), member, model.ReviewRequest{BookID: bookID, IsLike: true, Comment: comment}).
		Return(model.ReviewResult{}, nil)

	conn := dialHub(t, f, member)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "SubmitReview",
		"bookId":  bookID.String(),
		"isLike":  true,
		"comment": comment,
	}))

	// frames are handled in order, so the join reply proves the review frame was read
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "JoinBookGroup", "bookId": bookID.String()}))
	require.Equal(t, "ViewerJoined", readFrame(t, conn).Type)
}

func TestHub_DisconnectLeavesGroups(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	conn := dialHub(t, f, member)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "JoinBookGroup", "bookId": bookID.String()}))
	readFrame(t, conn)
	require.Equal(t, 1, f.groups.Size(bookID.String()))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return f.groups.Size(bookID.String()) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestHub_RequiresIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/hub", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
