package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/config"
	"github.com/quantboard/chat/internal/model"
	"github.com/quantboard/chat/internal/pkg/database"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/repository"
)

func main() {
	log.Println("Starting database seed...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zap.NewNop()
	db, err := database.NewPostgres(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Seed users
	log.Println("Creating users...")
	users := []struct {
		username string
		email    string
		password string
		isAdmin  bool
	}{
		{"alice", "alice@example.com", "password123", true},
		{"bob", "bob@example.com", "password123", false},
		{"charlie", "charlie@example.com", "password123", false},
		{"diana", "diana@example.com", "password123", false},
		{"evan", "evan@example.com", "password123", false},
	}

	var createdUsers []*model.User
	for _, u := range users {
		hash, _ := utils.HashPassword(u.password)
		user := &model.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: hash,
			IsAdmin:      u.isAdmin,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("User %s might already exist: %v", u.username, err)
			existing, _ := userRepo.GetByUsername(ctx, u.username)
			if existing != nil {
				createdUsers = append(createdUsers, existing)
			}
		} else {
			createdUsers = append(createdUsers, user)
			log.Printf("Created user: %s", u.username)
		}
	}

	if len(createdUsers) < 2 {
		log.Println("Not enough users, skipping room and message creation")
		return
	}

	// Seed rooms
	log.Println("Creating rooms...")
	rooms := []struct {
		name         string
		description  string
		roomType     model.RoomType
		creatorIndex int
		capacity     int32
	}{
		{"Market Open", "Daily market open discussion", model.RoomTypePublic, 0, 0},
		{"Earnings Season", "Quarterly earnings calls and reactions", model.RoomTypePublic, 1, 0},
		{"Options Strategies", "Spreads, wheels and hedges", model.RoomTypePublic, 2, 200},
		{"Fund Managers", "Invite-only strategy talk", model.RoomTypePrivate, 0, 25},
	}

	var createdRooms []*model.Room
	for _, r := range rooms {
		if r.creatorIndex >= len(createdUsers) {
			continue
		}

		room := &model.Room{
			Name:      r.name,
			Type:      r.roomType,
			CreatorID: createdUsers[r.creatorIndex].ID,
		}
		if r.description != "" {
			room.Description = sql.NullString{String: r.description, Valid: true}
		}
		if r.capacity > 0 {
			room.Capacity = sql.NullInt32{Int32: r.capacity, Valid: true}
		}

		if err := roomRepo.Create(ctx, room); err != nil {
			log.Printf("Room %s might already exist: %v", r.name, err)
		} else {
			createdRooms = append(createdRooms, room)
			log.Printf("Created room: %s", r.name)

			if _, _, err := membershipRepo.Join(ctx, room.ID, room.CreatorID); err != nil {
				log.Printf("Failed to join creator to %s: %v", r.name, err)
			}
		}
	}

	// Fill rooms with members
	log.Println("Adding members to rooms...")
	for _, room := range createdRooms {
		for i, user := range createdUsers {
			if user.ID == room.CreatorID {
				continue
			}

			if i%2 == 0 || room.Type == model.RoomTypePublic {
				if _, _, err := membershipRepo.Join(ctx, room.ID, user.ID); err == nil {
					log.Printf("Added %s to room %s", user.Username, room.Name)
				}
			}
		}
	}

	// Seed messages
	log.Println("Creating messages...")
	messages := []struct {
		roomIndex int
		userIndex int
		content   string
	}{
		{0, 0, "Futures pointing green this morning"},
		{0, 1, "CPI print at 8:30, keep an eye out"},
		{0, 2, "Volume is thin ahead of the number"},
		{0, 3, "Energy leading again"},
		{1, 1, "NVDA reports after the bell today"},
		{1, 0, "Whisper numbers look aggressive"},
		{1, 2, "Last quarter they beat by 8 percent"},
		{2, 2, "Anyone wheeling SPY here?"},
		{2, 4, "IV is too low for decent premium"},
	}

	for _, m := range messages {
		if m.roomIndex >= len(createdRooms) || m.userIndex >= len(createdUsers) {
			continue
		}

		msg := &model.Message{
			RoomID:   createdRooms[m.roomIndex].ID,
			SenderID: createdUsers[m.userIndex].ID,
			Type:     model.MessageTypeText,
			Content:  m.content,
		}

		if err := messageRepo.Create(ctx, msg); err != nil {
			log.Printf("Failed to create message: %v", err)
		} else {
			log.Printf("Created message in %s", createdRooms[m.roomIndex].Name)
		}

		// Small delay to ensure different timestamps
		time.Sleep(10 * time.Millisecond)
	}

	log.Println("Seed completed successfully!")
	fmt.Println("\n--- Test Accounts ---")
	fmt.Println("All accounts have password: password123")
	for _, u := range users {
		fmt.Printf("Username: %s, Email: %s\n", u.username, u.email)
	}
}
