// cmd/medalert/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"medalert-client/internal/api"
	"medalert-client/internal/common/config"
	apperrors "medalert-client/internal/common/errors"
	"medalert-client/internal/common/logger"
	"medalert-client/internal/screens"
	"medalert-client/internal/session"
	"medalert-client/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var zapLog *zap.Logger
	if cfg.Logging.Output != "" && cfg.Logging.Output != "stdout" {
		zapLog = logger.NewWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logger.FileRotation{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
	} else {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting medalert client", map[string]interface{}{
		"backend":     cfg.Backend.BaseURL,
		"environment": cfg.App.Environment,
	})

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				log.WithError(err).Warn("metrics server stopped", nil)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(api.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: config.GetDuration(cfg.Backend.RequestTimeout),
	}, log)

	if cfg.Backend.HealthProbe {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if hs, err := client.Health(probeCtx); err != nil {
			log.WithError(err).Warn("backend health probe failed", nil)
			fmt.Println("warning: backend is unreachable, commands will fail until it is up")
		} else if !hs.Healthy() {
			log.Warn("backend reported unhealthy", map[string]interface{}{"status": hs.Status})
		}
		cancel()
	}

	shell := newShell(cfg, client, log)
	shell.run(ctx)

	log.Info("medalert client stopped", nil)
}

// shell drives the session state machine and the screen controllers from a
// line-based command loop.
type shell struct {
	log       logger.Logger
	session   session.Session
	uploader  *upload.Workflow
	details   *screens.DetailsController
	settings  *screens.SettingsController
	reminders *screens.RemindersController
}

func newShell(cfg *config.Config, client *api.Client, log logger.Logger) *shell {
	uploadCfg := &upload.Config{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
		ProgressTick: config.GetDuration(cfg.Upload.ProgressTick),
		DisplayDelay: config.GetDuration(cfg.Upload.DisplayDelay),
	}
	return &shell{
		log:       log,
		session:   session.New(),
		uploader:  upload.NewWorkflow(uploadCfg, client, log),
		details:   screens.NewDetails(),
		settings:  screens.NewSettings(client, log),
		reminders: screens.NewReminders(client, log),
	}
}

func (s *shell) run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("medalert - type 'help' for commands")

	for {
		s.session = s.session.Tick(time.Now())
		s.printBanners()
		fmt.Printf("[%s] > ", s.session.ActiveTab)

		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			s.printHelp()
		case "tab":
			s.cmdTab(args)
		case "upload":
			s.cmdUpload(ctx, args)
		case "details":
			s.cmdDetails()
		case "prefs":
			s.cmdPrefs(ctx)
		case "set":
			s.cmdSet(args)
		case "save":
			s.cmdSave(ctx)
		case "reminders":
			s.cmdReminders(ctx)
		case "history":
			s.cmdHistory(ctx, args)
		case "delete-reminders":
			s.cmdDeleteReminders(ctx)
		case "test-notification":
			s.cmdTestNotification(ctx)
		case "notifications":
			s.cmdNotifications(ctx, args)
		case "read":
			s.cmdMarkRead(ctx, args)
		case "voices":
			s.cmdVoices(ctx)
		case "set-voice":
			s.cmdSetVoice(ctx, args)
		case "test-voice":
			s.cmdTestVoice(ctx)
		case "register-device":
			s.cmdDeviceToken(ctx, args, true)
		case "unregister-device":
			s.cmdDeviceToken(ctx, args, false)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Println(`commands:
  tab <upload|details|settings|reminders>
  upload <path>            analyze a prescription image
  details                  show the analyzed prescription
  prefs                    load notification preferences
  set <field> <value>      edit a preference field locally
  save                     push preferences to the backend
  reminders                list scheduled reminders
  history <days>           reminder history
  delete-reminders         remove all reminders for the patient
  test-notification        send a test across enabled channels
  notifications [unread]   list delivered notifications
  read <id>                mark a notification as read
  voices | set-voice <n> | test-voice
  register-device <token> | unregister-device <token>
  quit`)
}

func (s *shell) printBanners() {
	for _, b := range s.session.Banners {
		fmt.Printf("  [%s] %s\n", b.Level, b.Message)
	}
}

func (s *shell) fail(err error) {
	s.session = s.session.OnError(apperrors.UserMessage(err))
}

func (s *shell) cmdTab(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: tab <upload|details|settings|reminders>")
		return
	}
	requested := session.Tab(args[0])
	next := s.session.OnTabRequested(requested)
	if next.ActiveTab != requested {
		fmt.Printf("tab %q is not available yet\n", requested)
		return
	}
	s.session = next
	if requested == session.TabSettings {
		s.settings.SetPatient(s.session.PatientName)
	}
	if requested == session.TabReminders {
		s.reminders.SetPatient(s.session.PatientName)
	}
}

func (s *shell) cmdUpload(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: upload <path>")
		return
	}
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		s.fail(apperrors.NewValidationError(apperrors.ErrCodeNoFileSelected, err.Error()))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(apperrors.NewValidationError(apperrors.ErrCodeNoFileSelected, err.Error()))
		return
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if s.uploader.State() == upload.StateUploading {
					fmt.Printf("\ruploading... %d%%", s.uploader.Progress())
				}
			}
		}
	}()

	prescription, err := s.uploader.Run(ctx, &upload.FileInput{
		Name:   info.Name(),
		Size:   info.Size(),
		Reader: f,
	})
	close(stop)
	fmt.Println()

	if err != nil {
		s.fail(err)
		return
	}

	s.session = s.session.OnUploadSucceeded(prescription, time.Now())
	s.details.SetPrescription(prescription)
	s.settings.SetPatient(s.session.PatientName)
	s.reminders.SetPatient(s.session.PatientName)
	s.cmdDetails()
}

func (s *shell) cmdDetails() {
	view := s.details.Snapshot()
	if view.PatientName == "" {
		fmt.Println("no prescription loaded, upload one first")
		return
	}
	fmt.Printf("patient: %s\n", view.PatientName)
	if view.PatientAge != nil {
		fmt.Printf("age: %d\n", *view.PatientAge)
	}
	fmt.Printf("date: %s\nmedicines: %d, daily reminders: %d\n", view.Date, view.MedicineCount, view.DailyReminderCount)
	for _, m := range view.Medicines {
		fmt.Printf("  - %s (%s, %s) at %s\n", m.Medicine, m.Type, m.Dosage, strings.Join(m.Timings, ", "))
	}
}

func (s *shell) cmdPrefs(ctx context.Context) {
	if err := s.settings.Load(ctx); err != nil {
		s.fail(err)
		return
	}
	prefs := s.settings.Preferences()
	fmt.Printf("%+v\n", prefs)
}

func (s *shell) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: set <field> <value>")
		return
	}
	field, value := args[0], strings.Join(args[1:], " ")
	ok := true
	s.settings.Edit(func(p *api.Preferences) {
		switch field {
		case "sound":
			p.NotificationSound = value
		case "frequency":
			p.ReminderFrequency = value
		case "voice":
			p.VoiceEnabled = value == "on"
		case "push":
			p.PushNotifications = value == "on"
		case "email-notifications":
			p.EmailNotifications = value == "on"
		case "sms-notifications":
			p.SMSNotifications = value == "on"
		case "whatsapp-notifications":
			p.WhatsappNotifications = value == "on"
		case "email":
			p.Email = value
		case "phone":
			p.Phone = value
		case "whatsapp":
			p.Whatsapp = value
		default:
			ok = false
		}
	})
	if !ok {
		fmt.Printf("unknown field %q\n", field)
	}
}

func (s *shell) cmdSave(ctx context.Context) {
	msg, err := s.settings.Save(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	s.session = s.session.OnSettingsSaved(time.Now())
	if msg != "" {
		fmt.Println(msg)
	}
}

func (s *shell) cmdReminders(ctx context.Context) {
	var err error
	if s.session.PatientName != "" {
		err = s.reminders.Load(ctx)
	} else {
		err = s.reminders.LoadAll(ctx)
	}
	if err != nil {
		s.fail(err)
		return
	}

	summary := s.reminders.Summary()
	fmt.Printf("reminders: %d total (%d active, %d paused, %d completed)\n",
		summary.Total, summary.Active, summary.Paused, summary.Completed)
	for _, r := range s.reminders.Reminders() {
		fmt.Printf("  - %s %s at %s [%s]\n", r.MedicineName, r.Dosage, r.Timing, r.Status)
	}
	if next := s.reminders.NextUp(time.Now()); next != nil {
		fmt.Printf("next up: %s in %s\n", next.MedicineName, next.Countdown(time.Now()).Round(time.Second))
	}
}

func (s *shell) cmdHistory(ctx context.Context, args []string) {
	days := 7
	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			days = n
		}
	}
	history, err := s.reminders.History(ctx, days)
	if err != nil {
		s.fail(err)
		return
	}
	for _, r := range history {
		fmt.Printf("  - %s %s at %s [%s]\n", r.MedicineName, r.Dosage, r.Timing, r.Status)
	}
}

func (s *shell) cmdDeleteReminders(ctx context.Context) {
	msg, err := s.reminders.DeleteAll(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) cmdTestNotification(ctx context.Context) {
	result, err := s.settings.TestNotification(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if len(result.SentVia) == 0 {
		fmt.Println("no notification channels are configured")
		return
	}
	fmt.Printf("sent via: %s\n", strings.Join(result.SentVia, ", "))
}

func (s *shell) cmdNotifications(ctx context.Context, args []string) {
	unreadOnly := len(args) == 1 && args[0] == "unread"
	notifications, err := s.settings.Notifications(ctx, unreadOnly)
	if err != nil {
		s.fail(err)
		return
	}
	if len(notifications) == 0 {
		fmt.Println("no notifications")
		return
	}
	for _, n := range notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("  %s %s: %s (%s)\n", marker, n.ID, n.Title, n.CreatedAt)
	}
}

func (s *shell) cmdMarkRead(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: read <id>")
		return
	}
	msg, err := s.settings.MarkRead(ctx, args[0])
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) cmdVoices(ctx context.Context) {
	voices, err := s.settings.Voices(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	for _, v := range voices {
		fmt.Printf("  - %s: %s\n", v.Name, v.Description)
	}
}

func (s *shell) cmdSetVoice(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: set-voice <name>")
		return
	}
	msg, err := s.settings.SetVoice(ctx, args[0])
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) cmdTestVoice(ctx context.Context) {
	result, err := s.settings.TestVoice(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Println(result.TestMessage)
}

func (s *shell) cmdDeviceToken(ctx context.Context, args []string, register bool) {
	if len(args) != 1 {
		fmt.Println("usage: register-device <token> | unregister-device <token>")
		return
	}
	var msg string
	var err error
	if register {
		msg, err = s.settings.RegisterDevice(ctx, args[0])
	} else {
		msg, err = s.settings.UnregisterDevice(ctx, args[0])
	}
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Println(msg)
}
