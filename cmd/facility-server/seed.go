package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/config"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
)

const (
	demoInstitution = "Hospital Demo"
	demoBuilding    = "Main"
	demoFloor       = 1
	demoService     = "General"
	demoRoom        = "101"
	demoTokenPrefix = "H1-101-"
)

var (
	demoBeds  = []string{"A", "B", "C"}
	demoAreas = []string{"Maintenance", "Cleaning", "Nutrition", "Social Work", "Spiritual Care"}
)

// locationSeeder is the part of the location service the seed command uses.
type locationSeeder interface {
	EnsureInstitution(ctx context.Context, name string) (*location.Institution, error)
	EnsureBuilding(ctx context.Context, institutionID uuid.UUID, name string) (*location.Building, error)
	EnsureFloor(ctx context.Context, buildingID uuid.UUID, number int) (*location.Floor, error)
	EnsureService(ctx context.Context, name string) (*location.ClinicalService, error)
	CreateRoom(ctx context.Context, in location.CreateRoomInput) (*location.Room, error)
	ListRooms(ctx context.Context, institutionID *uuid.UUID) ([]*location.Room, error)
	CreateBed(ctx context.Context, in location.CreateBedInput) (*location.Bed, error)
}

type areaSeeder interface {
	Ensure(ctx context.Context, name string) (*area.Area, error)
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo hospital hierarchy and request areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.IsDev())
			locations := location.NewService(location.NewRepo(pool), logger)
			areas := area.NewService(area.NewRepo(pool))
			return seedDemo(ctx, locations, areas, os.Stdout)
		},
	}
}

// seedDemo is safe to run repeatedly: existing rows are reused and beds that
// already exist are reported and skipped.
func seedDemo(ctx context.Context, locations locationSeeder, areas areaSeeder, out io.Writer) error {
	inst, err := locations.EnsureInstitution(ctx, demoInstitution)
	if err != nil {
		return fmt.Errorf("seed institution: %w", err)
	}
	building, err := locations.EnsureBuilding(ctx, inst.ID, demoBuilding)
	if err != nil {
		return fmt.Errorf("seed building: %w", err)
	}
	floor, err := locations.EnsureFloor(ctx, building.ID, demoFloor)
	if err != nil {
		return fmt.Errorf("seed floor: %w", err)
	}
	service, err := locations.EnsureService(ctx, demoService)
	if err != nil {
		return fmt.Errorf("seed service: %w", err)
	}

	room, err := seedRoom(ctx, locations, inst.ID, floor.ID, service.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "room %s %s\n", room.Name, room.ID)

	for _, label := range demoBeds {
		bed, err := locations.CreateBed(ctx, location.CreateBedInput{
			RoomID:  room.ID,
			Label:   label,
			QRToken: demoTokenPrefix + label,
		})
		switch {
		case errors.Is(err, apperr.ErrConflict):
			fmt.Fprintf(out, "bed %s exists\n", label)
		case err != nil:
			return fmt.Errorf("seed bed %s: %w", label, err)
		default:
			fmt.Fprintf(out, "bed %s token %s\n", bed.Label, bed.QRToken)
		}
	}

	for _, name := range demoAreas {
		a, err := areas.Ensure(ctx, name)
		if err != nil {
			return fmt.Errorf("seed area %s: %w", name, err)
		}
		fmt.Fprintf(out, "area %s %s\n", a.Name, a.ID)
	}
	return nil
}

func seedRoom(ctx context.Context, locations locationSeeder, institutionID, floorID, serviceID uuid.UUID) (*location.Room, error) {
	room, err := locations.CreateRoom(ctx, location.CreateRoomInput{
		FloorID:   floorID,
		ServiceID: serviceID,
		Name:      demoRoom,
	})
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return nil, fmt.Errorf("seed room: %w", err)
	}
	rooms, err := locations.ListRooms(ctx, &institutionID)
	if err != nil {
		return nil, fmt.Errorf("seed room: %w", err)
	}
	for _, r := range rooms {
		if r.FloorID == floorID && strings.EqualFold(r.Name, demoRoom) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("seed room: room %s reported as existing but not found", demoRoom)
}
