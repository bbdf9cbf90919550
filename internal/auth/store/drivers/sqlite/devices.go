package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
)

type devicesRepo struct {
	q *gen.Queries
}

func (r *devicesRepo) UpsertDevice(ctx context.Context, d domain.Device) error {
	return r.q.UpsertDevice(ctx, gen.UpsertDeviceParams{
		ID:         string(d.ID),
		UserAgent:  d.UserAgent,
		IpAddress:  d.IPAddress,
		CreatedAt:  utc(d.CreatedAt),
		LastSeenAt: utc(d.LastSeenAt),
	})
}

func (r *devicesRepo) GetDevice(ctx context.Context, id domain.DeviceID) (domain.Device, error) {
	row, err := r.q.GetDevice(ctx, string(id))
	if err != nil {
		return domain.Device{}, mapNotFound(err)
	}
	return mapDevice(row), nil
}

func (r *devicesRepo) UpsertDeviceAccount(ctx context.Context, info domain.DeviceAccountInfo) error {
	return r.q.UpsertDeviceAccount(ctx, gen.UpsertDeviceAccountParams{
		DeviceID:          string(info.DeviceID),
		Sub:               info.Sub,
		AuthenticatedAt:   utc(info.AuthenticatedAt),
		AuthorizedClients: strings.Join(info.AuthorizedClients, " "),
		Remember:          info.Remember,
		CreatedAt:         utc(info.CreatedAt),
		UpdatedAt:         utc(info.UpdatedAt),
	})
}

func (r *devicesRepo) GetDeviceAccount(
	ctx context.Context,
	deviceID domain.DeviceID,
	sub string,
) (domain.DeviceAccountInfo, error) {
	row, err := r.q.GetDeviceAccount(ctx, gen.GetDeviceAccountParams{
		DeviceID: string(deviceID),
		Sub:      sub,
	})
	if err != nil {
		return domain.DeviceAccountInfo{}, mapNotFound(err)
	}
	return mapDeviceAccount(row), nil
}

func (r *devicesRepo) DeleteDeviceAccount(ctx context.Context, deviceID domain.DeviceID, sub string) error {
	return r.q.DeleteDeviceAccount(ctx, gen.DeleteDeviceAccountParams{
		DeviceID: string(deviceID),
		Sub:      sub,
	})
}

func mapDevice(row gen.Device) domain.Device {
	return domain.Device{
		ID:         domain.DeviceID(row.ID),
		UserAgent:  row.UserAgent,
		IPAddress:  row.IpAddress,
		CreatedAt:  row.CreatedAt,
		LastSeenAt: row.LastSeenAt,
	}
}

func mapDeviceAccount(row gen.DeviceAccount) domain.DeviceAccountInfo {
	return domain.DeviceAccountInfo{
		DeviceID:          domain.DeviceID(row.DeviceID),
		Sub:               row.Sub,
		AuthenticatedAt:   row.AuthenticatedAt,
		AuthorizedClients: strings.Fields(row.AuthorizedClients),
		Remember:          row.Remember,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
