package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	authDomain "shop-backoffice/internal/domain/auth"
)

// fakeCodec 以明文欄位拼接模擬 token，供 use case 測試使用。
type fakeCodec struct {
	now     func() time.Time
	expired bool // 讓 DecodeAccess 一律回報過期
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{now: time.Now}
}

func (c *fakeCodec) EncodeAccess(id, email string) (string, time.Time, error) {
	exp := c.now().Add(15 * time.Minute)
	return fmt.Sprintf("access|%s|%s|%d", id, email, exp.Unix()), exp, nil
}

func (c *fakeCodec) DecodeAccess(token string) (authDomain.Identity, time.Time, error) {
	if c.expired {
		return authDomain.Identity{}, time.Time{}, authDomain.ErrExpiredToken
	}
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "access" {
		return authDomain.Identity{}, time.Time{}, authDomain.ErrMalformedToken
	}
	sec, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return authDomain.Identity{}, time.Time{}, authDomain.ErrMalformedToken
	}
	exp := time.Unix(sec, 0)
	if c.now().After(exp) {
		return authDomain.Identity{}, time.Time{}, authDomain.ErrExpiredToken
	}
	return authDomain.Identity{ID: parts[1], Email: parts[2]}, exp, nil
}

func (c *fakeCodec) EncodeRefresh(id string, version int) (string, time.Time, error) {
	exp := c.now().Add(7 * 24 * time.Hour)
	return fmt.Sprintf("refresh|%s|%d|%d", id, version, exp.Unix()), exp, nil
}

func (c *fakeCodec) DecodeRefresh(token string) (string, int, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "refresh" {
		return "", 0, authDomain.ErrMalformedToken
	}
	version, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, authDomain.ErrMalformedToken
	}
	sec, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", 0, authDomain.ErrMalformedToken
	}
	if c.now().After(time.Unix(sec, 0)) {
		return "", 0, authDomain.ErrExpiredToken
	}
	return parts[1], version, nil
}
