package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/healthsys/go-health-admin/api"
	"github.com/healthsys/go-health-admin/authapi"
	"github.com/healthsys/go-health-admin/cache"
	"github.com/healthsys/go-health-admin/clients"
	"github.com/healthsys/go-health-admin/internal/config"
	"github.com/healthsys/go-health-admin/internal/utils"
	"github.com/healthsys/go-health-admin/programs"
	"github.com/healthsys/go-health-admin/session"
	"github.com/healthsys/go-health-admin/storage"
	"github.com/healthsys/go-health-admin/users"
)

const appName = "Health Admin"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app bundles the wired-up services the commands operate on
type app struct {
	auth     *authapi.Service
	session  *session.Manager
	clients  *clients.Service
	programs *programs.Service
	log      zerolog.Logger
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		displayAppname(appName)
		usage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config.Load")
	}

	application, err := buildApp(cfg)
	if err != nil {
		return errors.Wrap(err, "buildApp")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.RequestTimeout)
	defer cancel()

	return dispatch(ctx, application, args)
}

func buildApp(cfg *config.Config) (*app, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	store := storage.NewFileStore(cfg.Storage.Path, cfg.Storage.Passphrase, log)
	httpClient := &http.Client{Timeout: cfg.API.RequestTimeout}

	authService := authapi.NewService(cfg.API.BaseURL, httpClient, log)
	sessionManager, err := session.New(authService, store, log)
	if err != nil {
		return nil, errors.Wrap(err, "session.New")
	}

	apiClient, err := api.NewClient(cfg.API.BaseURL, sessionManager, httpClient, log)
	if err != nil {
		return nil, errors.Wrap(err, "api.NewClient")
	}

	cacheStore := cache.NewStore(log)
	clientsService, err := clients.NewService(apiClient, cacheStore, log)
	if err != nil {
		return nil, errors.Wrap(err, "clients.NewService")
	}
	programsService, err := programs.NewService(apiClient, cacheStore, log)
	if err != nil {
		return nil, errors.Wrap(err, "programs.NewService")
	}

	return &app{
		auth:     authService,
		session:  sessionManager,
		clients:  clientsService,
		programs: programsService,
		log:      log,
	}, nil
}

func dispatch(ctx context.Context, a *app, args []string) error {
	switch args[0] {
	case "login":
		return cmdLogin(ctx, a, args[1:])
	case "register":
		return cmdRegister(ctx, a, args[1:])
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("Signed out")
		return nil
	case "whoami":
		return cmdWhoami(a)
	case "clients":
		return cmdClients(ctx, a, args[1:])
	case "programs":
		return cmdPrograms(ctx, a, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	if user := a.session.User(); user != nil {
		fmt.Printf("Signed in as %s\n", user.FullName())
	}
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	registration := users.Registration{}
	fs.StringVar(&registration.Email, "email", "", "account email")
	fs.StringVar(&registration.FirstName, "first-name", "", "first name")
	fs.StringVar(&registration.LastName, "last-name", "", "last name")
	fs.StringVar(&registration.Password, "password", "", "password")
	fs.StringVar(&registration.PasswordConfirm, "password-confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	response, err := a.auth.Register(ctx, registration)
	if err != nil {
		return err
	}
	fmt.Println(response.Message)
	return nil
}

func cmdWhoami(a *app) error {
	snapshot := a.session.Snapshot()
	if !snapshot.IsAuthenticated {
		fmt.Println("Not signed in")
		return nil
	}
	if snapshot.User != nil {
		fmt.Printf("%s <%s>\n", snapshot.User.FullName(), snapshot.User.Email)
		return nil
	}
	fmt.Println("Signed in (restored session)")
	return nil
}

func cmdClients(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: clients <list|get|search|create|enroll>")
	}

	switch args[0] {
	case "list":
		result, err := a.clients.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "get":
		if len(args) < 2 {
			return errors.New("usage: clients get <id>")
		}
		result, err := a.clients.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	case "search":
		if len(args) < 2 {
			return errors.New("usage: clients search <query>")
		}
		result, err := a.clients.Search(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	case "create":
		return cmdClientsCreate(ctx, a, args[1:])
	case "enroll":
		fs := flag.NewFlagSet("enroll", flag.ContinueOnError)
		clientID := fs.String("client", "", "client id")
		programID := fs.String("program", "", "program id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := a.clients.EnrollInProgram(ctx, *clientID, *programID); err != nil {
			return err
		}
		fmt.Println("Enrolled")
		return nil
	default:
		return fmt.Errorf("unknown clients subcommand %q", args[0])
	}
}

func cmdClientsCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("clients create", flag.ContinueOnError)
	form := clients.FormData{}
	var gender string
	fs.StringVar(&form.FirstName, "first-name", "", "first name")
	fs.StringVar(&form.LastName, "last-name", "", "last name")
	fs.StringVar(&form.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	fs.StringVar(&gender, "gender", "", "gender (male|female|other)")
	fs.StringVar(&form.ContactNumber, "phone", "", "contact number")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Address, "address", "", "address")
	fs.StringVar(&form.EmergencyContact, "emergency", "", "emergency contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.Gender = clients.Gender(gender)

	created, err := a.clients.Create(ctx, form)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func cmdPrograms(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: programs <list|get|clients|create|delete>")
	}

	switch args[0] {
	case "list":
		result, err := a.programs.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "get":
		if len(args) < 2 {
			return errors.New("usage: programs get <id>")
		}
		result, err := a.programs.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	case "clients":
		if len(args) < 2 {
			return errors.New("usage: programs clients <id>")
		}
		result, err := a.programs.Clients(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	case "create":
		return cmdProgramsCreate(ctx, a, args[1:])
	case "delete":
		if len(args) < 2 {
			return errors.New("usage: programs delete <id>")
		}
		if err := a.programs.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	default:
		return fmt.Errorf("unknown programs subcommand %q", args[0])
	}
}

func cmdProgramsCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("programs create", flag.ContinueOnError)
	form := programs.FormData{}
	var status, endDate string
	var capacity int
	fs.StringVar(&form.Name, "name", "", "program name")
	fs.StringVar(&form.Description, "description", "", "description")
	fs.StringVar(&form.StartDate, "start", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&status, "status", string(programs.StatusPlanned), "status (active|completed|planned)")
	fs.IntVar(&capacity, "capacity", 0, "capacity (0 for unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.Status = programs.Status(status)
	if endDate != "" {
		form.EndDate = utils.Ptr(endDate)
	}
	if capacity > 0 {
		form.Capacity = utils.Ptr(capacity)
	}

	created, err := a.programs.Create(ctx, form)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usage() {
	fmt.Println(`Usage: healthadmin <command>

Commands:
  login -email <email> -password <password>
  register -email <email> -first-name <name> -last-name <name> -password <pw> -password-confirm <pw>
  logout
  whoami
  clients list|get <id>|search <query>|create [flags]|enroll -client <id> -program <id>
  programs list|get <id>|clients <id>|create [flags]|delete <id>`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
