// Package zkteco adapts the gozk terminal driver to the device port. All
// knowledge of the driver's types stays inside this package; the rest of the
// service only sees device.Client.
package zkteco

import (
	"context"
	"fmt"
	"strconv"

	"github.com/siwa2904/gozk"

	"zkbridge.service/internal/ports/device"
)

// Dialer builds one driver connection per session.
type Dialer struct{}

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(endpoint device.Endpoint) device.Client {
	return &client{
		zk:       gozk.NewZK(endpoint.Host, endpoint.Port, 0, gozk.DefaultTimezone),
		endpoint: endpoint,
	}
}

type client struct {
	zk       *gozk.ZK
	endpoint device.Endpoint
}

func (c *client) Connect(ctx context.Context) error {
	return c.zk.Connect()
}

func (c *client) Disconnect(ctx context.Context) error {
	return c.zk.Disconnect()
}

func (c *client) GetUsers(ctx context.Context) ([]device.RawUser, error) {
	users, err := c.zk.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("reading user table: %w", err)
	}

	out := make([]device.RawUser, 0, len(users))
	for _, u := range users {
		card, _ := strconv.ParseInt(u.Card, 10, 64)
		out = append(out, device.RawUser{
			UID:          u.UID,
			DeviceUserID: u.UserID,
			Name:         u.Name,
			Role:         u.Privilege,
			CardNo:       card,
		})
	}
	return out, nil
}

func (c *client) GetAttendances(ctx context.Context) ([]device.RawAttendanceRecord, error) {
	records, err := c.zk.GetAttendances()
	if err != nil {
		return nil, fmt.Errorf("reading attendance log: %w", err)
	}

	out := make([]device.RawAttendanceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, device.RawAttendanceRecord{
			UserSN:       int(r.UUID),
			DeviceUserID: strconv.FormatInt(r.UserID, 10),
			RecordTime:   r.AttendedAt,
			IP:           c.endpoint.Host,
		})
	}
	return out, nil
}

// GetInfo reports the terminal's counters. The driver does not expose the
// capacity register, so LogCapacity stays zero and the counts are derived
// from the user and attendance tables.
func (c *client) GetInfo(ctx context.Context) (device.Info, error) {
	users, err := c.zk.GetUsers()
	if err != nil {
		return device.Info{}, fmt.Errorf("reading user table: %w", err)
	}
	records, err := c.zk.GetAttendances()
	if err != nil {
		return device.Info{}, fmt.Errorf("reading attendance log: %w", err)
	}
	return device.Info{
		UserCounts: len(users),
		LogCounts:  len(records),
	}, nil
}

func (c *client) ClearAttendanceLog(ctx context.Context) error {
	return c.zk.ClearAttendances()
}

func (c *client) EnableDevice(ctx context.Context) error {
	return c.zk.EnableDevice()
}

func (c *client) DisableDevice(ctx context.Context) error {
	return c.zk.DisableDevice()
}

func (c *client) LiveCapture(ctx context.Context) (<-chan device.RealtimeEvent, error) {
	captured, err := c.zk.LiveCapture()
	if err != nil {
		return nil, err
	}

	events := make(chan device.RealtimeEvent)
	go func() {
		defer close(events)
		for att := range captured {
			ev := device.RealtimeEvent{
				DeviceUserID: strconv.FormatInt(att.UserID, 10),
				AttTime:      att.AttendedAt,
				VerifyMethod: int(att.VerifyMethod),
				InOutMode:    int(att.AttState),
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (c *client) StopCapture() {
	c.zk.StopCapture()
}
