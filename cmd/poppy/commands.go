package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/poppys-produce/backend/app/jobs"
	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/repositories"
	"github.com/poppys-produce/backend/app/routes"
	appsched "github.com/poppys-produce/backend/app/schedule"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/internal/server"
	"github.com/poppys-produce/backend/pkg/cache"
	"github.com/poppys-produce/backend/pkg/database"
	"github.com/poppys-produce/backend/pkg/queue"
	"github.com/poppys-produce/backend/pkg/schedule"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, queue workers and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run()
		},
	}
}

// bootstrap prepares config + shared infra for the standalone commands.
func bootstrap() (context.Context, context.CancelFunc, error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if err := server.Bootstrap(ctx); err != nil {
		stop()
		return nil, nil, err
	}
	return ctx, stop, nil
}

func queueWorkCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "queue:work",
		Short: "Run queue workers without the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, err := bootstrap()
			if err != nil {
				return err
			}
			defer stop()

			jobs.Register()
			queue.UseCollection(database.DB().Collection("failedJobs"))
			if cache.RDB != nil {
				queue.SetDriver(queue.NewRedisDriver(cache.RDB))
			}
			queue.StartWorkers(ctx, workers)

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent workers")
	return cmd
}

func scheduleRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule:run",
		Short: "Run the task scheduler without the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, err := bootstrap()
			if err != nil {
				return err
			}
			defer stop()

			appsched.Register()
			schedule.Start(ctx)
			for _, entry := range schedule.List() {
				fmt.Println(" ", entry)
			}

			<-ctx.Done()
			return nil
		},
	}
}

func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "Print the registered HTTP routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stop, err := bootstrap()
			if err != nil {
				return err
			}
			defer stop()

			r, err := routes.Build(nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			for _, route := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", route.Method, route.Path, route.Name)
			}
			return w.Flush()
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the product catalog (idempotent, keyed by name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, err := bootstrap()
			if err != nil {
				return err
			}
			defer stop()

			products := starterCatalog
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &products); err != nil {
					return fmt.Errorf("seed: parse %s: %w", file, err)
				}
			}

			seedCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			n, err := repositories.NewProductRepository().Seed(seedCtx, products)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d new products (%d total in file).\n", n, len(products))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with [{\"name\":...,\"isNew\":...}]")
	return cmd
}

var starterCatalog = []models.Product{
	{Name: "Bananas"}, {Name: "Gala Apples"}, {Name: "Navel Oranges"},
	{Name: "Romaine Lettuce"}, {Name: "Curly Kale"}, {Name: "Roma Tomatoes"},
	{Name: "Yellow Onions"}, {Name: "Russet Potatoes"}, {Name: "Carrots"},
	{Name: "Celery"}, {Name: "Broccoli Crowns"}, {Name: "Cucumbers"},
	{Name: "Green Bell Peppers"}, {Name: "Limes"}, {Name: "Lemons"},
	{Name: "Strawberries", IsNew: true}, {Name: "Blueberries", IsNew: true},
}

func userRoleCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "user:role <email> <admin|superuser>",
		Short: "Grant or revoke a role flag on an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, role := args[0], args[1]

			var field string
			switch role {
			case "admin":
				field = "admin"
			case "superuser":
				field = "isSuperUser"
			default:
				return fmt.Errorf("unknown role %q (want admin or superuser)", role)
			}

			ctx, stop, err := bootstrap()
			if err != nil {
				return err
			}
			defer stop()

			opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := repositories.NewUserRepository().SetRoleByEmail(opCtx, email, field, !revoke); err != nil {
				return err
			}

			verb := "granted to"
			if revoke {
				verb = "revoked from"
			}
			fmt.Printf("Role %s %s %s. Takes effect at next login.\n", role, verb, email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the role instead of granting it")
	return cmd
}
