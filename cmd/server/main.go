package main // API server entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/venuehub/event-ticketing/internal/config"
	"github.com/venuehub/event-ticketing/internal/database"
	"github.com/venuehub/event-ticketing/internal/handler"
	"github.com/venuehub/event-ticketing/internal/queue"
	"github.com/venuehub/event-ticketing/internal/repository"
	"github.com/venuehub/event-ticketing/internal/router"
	"github.com/venuehub/event-ticketing/internal/service"
	"github.com/venuehub/event-ticketing/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it caching and rate limiting are off.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	sessions := repository.NewSessionRepo(db)
	bookings := repository.NewBookingRepo(db)
	tickets := repository.NewTicketRepo(db)

	store := repository.NewReservationStore(sessions, bookings, tickets, cfg.TicketPrefix,
		func(bookingID uint64) (string, error) {
			return utils.TicketPayload(cfg.JWTSecret, bookingID)
		})

	reservations := service.NewReservation(store, queue.PublishBookingConfirmed)
	availability := service.NewAvailability(store)

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Browse:     handler.NewBrowseHandler(events, sessions, availability),
		Booking:    handler.NewBookingHandler(reservations, bookings, tickets),
		Organizer:  handler.NewOrganizerHandler(events, sessions),
		Ticket:     handler.NewTicketHandler(tickets, bookings, cfg.JWTSecret),
		AdminUsers: handler.NewAdminUserHandler(cfg, users),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg.JWTSecret, rdb)

	// The consumer appends confirmed bookings to logs/booking.log and
	// reconnects on broker failure. It must not take the API down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
