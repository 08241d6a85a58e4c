package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/indexgate/internal/db"
)

func TestPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("first ping: %v", err)
	}
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Fatalf("expected *db.Error with op PING, got %v", err)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		want    string
		wantErr error
	}{
		{name: "found", result: mock.Result(mock.RedisBlobString(`{"a":1}`)), want: `{"a":1}`},
		{name: "nil reply", result: mock.Result(mock.RedisNil()), wantErr: db.ErrKeyNotFound},
		{name: "transport", result: mock.ErrorResult(context.DeadlineExceeded), wantErr: context.DeadlineExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("GET", "indexgate:mappings")).Return(tc.result)

			data, err := NewStoreForTest(c).Get(context.Background(), "indexgate:mappings")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("got %q, want %q", data, tc.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "indexgate:apikeys", "{}")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := NewStoreForTest(c).Set(context.Background(), "indexgate:apikeys", []byte("{}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.ErrorResult(errors.New("READONLY")))

	err := NewStoreForTest(c).Set(context.Background(), "k", []byte("v"))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %v", err)
	}
	if dbErr.Op != db.OpSet || dbErr.Key != "k" {
		t.Errorf("unexpected error context: %+v", dbErr)
	}
}

func TestDel(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(0)))

	if err := NewStoreForTest(c).Del(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
