package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apiCmd "github.com/Alturino/storefront/api/cmd"
	cartCmd "github.com/Alturino/storefront/cart/cmd"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	productCmd "github.com/Alturino/storefront/product/cmd"
	"github.com/Alturino/storefront/product/pkg/request"
	userCmd "github.com/Alturino/storefront/user/cmd"
	userRequest "github.com/Alturino/storefront/user/pkg/request"
)

type options struct {
	configName string
	baseURL    string
	verbose    bool
	cfg        *config.Config
}

func Start() {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(c); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           constants.AppStorefront,
		Short:         "Storefront catalog, cart and reference API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.PersistentFlags().StringVar(&opts.configName, "config", constants.AppStorefront, "config file name under ./env")
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "REST collaborator base url")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at info level")

	rootCmd.AddCommand(
		newCatalogCommand(opts),
		newProductCommand(opts),
		newLoginCommand(opts),
		newCartCommand(opts),
		newApiCommand(opts),
	)
	return rootCmd
}

// setup loads the config and attaches the process logger to the command context. Client
// commands log warnings only unless --verbose is given.
func (o *options) setup(cmd *cobra.Command) error {
	c := cmd.Context()
	cfg, err := config.Load(c, o.configName)
	if err != nil {
		return err
	}
	if o.baseURL != "" {
		cfg.Api.BaseURL = o.baseURL
	}
	o.cfg = cfg

	logger := log.Get(cfg.Application.LogPath, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "cmd "+cmd.Name()).
		Logger()
	if !o.verbose && cmd.Name() != "api" {
		logger = logger.Level(zerolog.WarnLevel)
	}
	cmd.SetContext(logger.WithContext(c))
	return nil
}

func newCatalogCommand(opts *options) *cobra.Command {
	param := request.FindProduct{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog filtered by text and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return productCmd.RunCatalog(cmd.Context(), opts.cfg, param, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&param.Query, "query", "q", "", "text matched against name, description and category")
	cmd.Flags().StringVarP(&param.Category, "category", "c", "", "category, Todas for every category")
	return cmd
}

type credentials struct {
	userRequest.LoginRequest
}

func (cr *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cr.Email, "email", "", "email of the account")
	cmd.Flags().StringVar(&cr.Password, "password", "", "password of the account")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func newLoginCommand(opts *options) *cobra.Command {
	cr := &credentials{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return userCmd.RunLogin(cmd.Context(), opts.cfg, cr.LoginRequest, cmd.OutOrStdout())
		},
	}
	cr.bind(cmd)
	return cmd
}

func bindProductForm(cmd *cobra.Command, form *request.Product) {
	cmd.Flags().StringVar(&form.Name, "name", "", "product name")
	cmd.Flags().StringVar(&form.Price, "price", "", "price, a non negative decimal")
	cmd.Flags().StringVar(&form.Description, "description", "", "description")
	cmd.Flags().StringVar(&form.Category, "category", "", "one of Camisetas, Pantalones, Vestidos, Zapatos, Accesorios")
	cmd.Flags().StringVar(&form.Image, "image", "", "image url")
	cmd.Flags().StringVar(&form.Size, "size", "", "size")
	cmd.Flags().StringVar(&form.Color, "color", "", "color")
	cmd.Flags().StringVar(&form.Stock, "stock", "", "units in stock")
}

func newProductCommand(opts *options) *cobra.Command {
	productRoot := &cobra.Command{
		Use:   "product",
		Short: "Show and manage catalog products",
	}

	var id string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show one product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return productCmd.RunShowProduct(cmd.Context(), opts.cfg, id, cmd.OutOrStdout())
		},
	}
	show.Flags().StringVar(&id, "id", "", "product id")
	_ = show.MarkFlagRequired("id")

	addCr, addForm := &credentials{}, &request.Product{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product, requires an editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := userCmd.Login(cmd.Context(), opts.cfg, addCr.LoginRequest)
			if err != nil {
				return err
			}
			return productCmd.RunAddProduct(cmd.Context(), opts.cfg, principal, *addForm, cmd.OutOrStdout())
		},
	}
	addCr.bind(add)
	bindProductForm(add, addForm)

	var updateID string
	updateCr, updateForm := &credentials{}, &request.Product{}
	update := &cobra.Command{
		Use:   "update",
		Short: "Replace a product, requires an editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := userCmd.Login(cmd.Context(), opts.cfg, updateCr.LoginRequest)
			if err != nil {
				return err
			}
			return productCmd.RunUpdateProduct(cmd.Context(), opts.cfg, principal, updateID, *updateForm, cmd.OutOrStdout())
		},
	}
	update.Flags().StringVar(&updateID, "id", "", "product id")
	_ = update.MarkFlagRequired("id")
	updateCr.bind(update)
	bindProductForm(update, updateForm)

	var deleteID string
	deleteCr := &credentials{}
	remove := &cobra.Command{
		Use:   "delete",
		Short: "Delete a product, requires an administrador",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := userCmd.Login(cmd.Context(), opts.cfg, deleteCr.LoginRequest)
			if err != nil {
				return err
			}
			return productCmd.RunDeleteProduct(cmd.Context(), opts.cfg, principal, deleteID, cmd.OutOrStdout())
		},
	}
	remove.Flags().StringVar(&deleteID, "id", "", "product id")
	_ = remove.MarkFlagRequired("id")
	deleteCr.bind(remove)

	productRoot.AddCommand(show, add, update, remove)
	return productRoot
}

func newCartCommand(opts *options) *cobra.Command {
	cartRoot := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart of a user",
	}
	for _, action := range cartCmd.Actions {
		line := &cartCmd.Line{}
		cmd := &cobra.Command{
			Use:   string(action),
			Short: fmt.Sprintf("Run the %s cart action", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cartCmd.RunCart(cmd.Context(), opts.cfg, action, *line, cmd.OutOrStdout())
			},
		}
		cmd.Flags().StringVar(&line.UserID, "user", "", "user id")
		_ = cmd.MarkFlagRequired("user")
		switch action {
		case cartCmd.ActionShow, cartCmd.ActionCheckout:
		default:
			cmd.Flags().StringVar(&line.ProductID, "product", "", "product id")
			cmd.Flags().StringVar(&line.Size, "size", "", "size")
			_ = cmd.MarkFlagRequired("product")
			_ = cmd.MarkFlagRequired("size")
		}
		switch action {
		case cartCmd.ActionAdd, cartCmd.ActionUpdate:
			cmd.Flags().IntVar(&line.Quantity, "quantity", 1, "quantity")
		}
		cartRoot.AddCommand(cmd)
	}
	return cartRoot
}

func newApiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the reference REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiCmd.RunApiServer(cmd.Context(), opts.cfg)
		},
	}
}
