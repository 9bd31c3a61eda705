package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"martyrgrave-service/internal/client"
	"martyrgrave-service/internal/config"
	"martyrgrave-service/internal/tokenstore"
	"martyrgrave-service/internal/weekly"
	"martyrgrave-service/pkg/sl"
)

// Staff-facing weekly schedule tool: prints the selected day's slots and
// drives registration, cancellation and check-in against the API.
func main() {
	_ = godotenv.Load()

	var (
		accountID  = flag.Int64("account", 0, "staff account id")
		dateStr    = flag.String("date", "", "selected date (YYYY-MM-DD, default today)")
		storePath  = flag.String("store", ".martyrgrave/session.db", "session store path")
		register   = flag.Int64("register", 0, "register task id into -slot")
		cancel     = flag.Bool("cancel", false, "cancel the assignment in -slot")
		checkin    = flag.String("checkin", "", "comma-separated photo paths to check in -slot")
		slotID     = flag.Int64("slot", 0, "slot id for -register/-cancel/-checkin")
		setToken   = flag.String("set-token", "", "save a bearer token and exit")
		clearToken = flag.Bool("clear-token", false, "forget the saved bearer token and exit")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.MustLoad()

	profile, err := cfg.ActiveProfile()
	if err != nil {
		log.Error("Failed to resolve API profile", sl.Err(err))
		os.Exit(1)
	}

	store, err := tokenstore.Open(*storePath)
	if err != nil {
		log.Error("Failed to open session store", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *setToken != "" {
		if err := store.SetToken(ctx, *setToken); err != nil {
			log.Error("Failed to save token", sl.Err(err))
			os.Exit(1)
		}
		fmt.Println("token saved")
		return
	}

	if *clearToken {
		if err := store.ClearToken(ctx); err != nil {
			log.Error("Failed to clear token", sl.Err(err))
			os.Exit(1)
		}
		fmt.Println("token cleared")
		return
	}

	if *accountID == 0 {
		if p, err := store.Profile(ctx); err == nil && p != nil {
			*accountID = p.AccountID
		}
	}
	if *accountID == 0 {
		log.Error("No account id: pass -account or save a profile")
		os.Exit(1)
	}

	apiClient := client.New(profile, store)
	controller := weekly.NewController(apiClient, log, *accountID)

	if err := controller.Load(ctx); err != nil {
		log.Error("Failed to load weekly view", sl.Err(err))
		os.Exit(1)
	}

	if *dateStr != "" {
		date, err := weekly.ParseDate(*dateStr)
		if err != nil {
			log.Error("Invalid -date", sl.Err(err))
			os.Exit(1)
		}
		if err := controller.SelectDate(ctx, date); err != nil {
			log.Error("Failed to load selected date", sl.Err(err))
			os.Exit(1)
		}
	}

	switch {
	case *register != 0:
		runRegister(ctx, controller, *slotID, *register, log)
	case *cancel:
		runCancel(ctx, controller, *slotID)
	case *checkin != "":
		runCheckIn(ctx, controller, *slotID, strings.Split(*checkin, ","))
	}

	printDay(controller)
}

func runRegister(ctx context.Context, c *weekly.Controller, slotID, taskID int64, log *slog.Logger) {
	tasks, err := c.OpenRegistration(ctx, slotID)
	if err != nil {
		if errors.Is(err, weekly.ErrNoTasks) {
			fmt.Println("Không tìm thấy nhiệm vụ nào cho ngày này")
			return
		}
		log.Error("Failed to load task pool", sl.Err(err))
		return
	}

	for _, task := range tasks {
		if task.TaskID != taskID {
			continue
		}

		if err := c.ConfirmRegistration(ctx, slotID, task); err != nil {
			fmt.Println(userMessage(err, "Không thể đăng ký ca làm việc. Vui lòng thử lại sau."))
			return
		}

		fmt.Println("Đăng ký ca làm việc thành công!")
		return
	}

	c.CloseRegistration(slotID)
	fmt.Printf("task %d is not in the pool for this date\n", taskID)
}

func runCancel(ctx context.Context, c *weekly.Controller, slotID int64) {
	if err := c.CancelAssignment(ctx, slotID); err != nil {
		fmt.Println(userMessage(err, "Không thể hủy ca làm việc. Vui lòng thử lại sau."))
		return
	}

	fmt.Println("Đã hủy ca làm việc thành công!")
}

func runCheckIn(ctx context.Context, c *weekly.Controller, slotID int64, photos []string) {
	err := c.CheckIn(ctx, slotID, photos)

	switch {
	case err == nil:
		fmt.Println("Check-in thành công!")
	case errors.Is(err, weekly.ErrAlreadyCheckedIn):
		fmt.Println("Ca làm việc này đã được check-in")
	case errors.Is(err, weekly.ErrNoPhoto):
		fmt.Println("Vui lòng chụp ảnh xác nhận trước khi check-in")
	default:
		fmt.Println(userMessage(err, "Có lỗi xảy ra khi check-in"))
	}
}

// userMessage prefers the server's own message over the generic fallback.
func userMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}

func printDay(c *weekly.Controller) {
	fmt.Printf("\n%s\n", weekly.FormatDate(c.SelectedDate()))

	for _, entry := range c.Entries() {
		start := weekly.ShortTime(entry.Slot.StartTime)
		end := weekly.ShortTime(entry.Slot.EndTime)

		switch entry.State {
		case weekly.SlotAssigned, weekly.SlotCheckedIn:
			fmt.Printf("  [%d] %s-%s  %s (%s) [%s]\n",
				entry.Slot.SlotID, start, end,
				entry.Detail.ServiceName, entry.Detail.MartyrCode, entry.State)
		default:
			fmt.Printf("  [%d] %s-%s  (trống)\n", entry.Slot.SlotID, start, end)
		}
	}
}
