package main

import (
	"context"
	"embed"
	"runtime"

	"retrace/app"
	"retrace/app/settings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Create an instance of the app structure
	appInstance := app.NewApp()
	settingsService := settings.NewSettingsService()
	// Inject cache manager (app) so settings service can resize the screenshot cache
	settingsService.SetCacheManager(appInstance)

	AppMenu := menu.NewMenu()
	if runtime.GOOS == "darwin" {
		AppMenu.Append(menu.AppMenu())
	}

	FileMenu := AppMenu.AddSubmenu("File")
	FileMenu.AddText("Open Recording", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:openRecording")
		}
	})
	FileMenu.AddText("Close Session", keys.CmdOrCtrl("w"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:closeSession")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Copy Current Position", keys.CmdOrCtrl("c"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:copyPosition")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Settings", keys.CmdOrCtrl(","), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:settings")
		}
	})

	PlaybackMenu := AppMenu.AddSubmenu("Playback")
	playMenuItem := PlaybackMenu.AddText("Play / Pause", keys.Key("space"), nil)
	playMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			_ = appInstance.TogglePlayback()
		}
	})
	PlaybackMenu.AddSeparator()
	focusMenuItem := PlaybackMenu.AddText("Edit Focus Region", keys.CmdOrCtrl("e"), nil)
	focusMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			_ = appInstance.EnterFocusMode()
		}
	})

	ViewMenu := AppMenu.AddSubmenu("View")
	consoleMenuItem := ViewMenu.AddText("Toggle Console", keys.CmdOrCtrl("`"), nil)
	consoleMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleConsole")
		}
	})
	cacheIndicatorMenuItem := ViewMenu.AddText("Toggle Cache Indicator", nil, nil)
	cacheIndicatorMenuItem.OnClick(func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleCacheIndicator")
		}
	})

	HelpMenu := AppMenu.AddSubmenu("Help")
	HelpMenu.AddText("Shortcuts", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:shortcuts")
		}
	})
	HelpMenu.AddSeparator()
	HelpMenu.AddText("About", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:about")
		}
	})

	// Get saved window size or use defaults
	width, height, err := appInstance.GetSavedWindowSize()
	if err != nil {
		println("Warning: Failed to get saved window size, using defaults:", err.Error())
		width, height = 1280, 800
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:  "Retrace",
		Width:  width,
		Height: height,
		Menu:   AppMenu,
		MinWidth:  400,
		MinHeight: 300,
		MaxWidth:  7680,
		MaxHeight: 4320,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 24, G: 26, B: 32, A: 1},
		OnStartup: func(ctx context.Context) {
			appInstance.Startup(ctx)
			settingsService.Startup(ctx)
			// Ensure instance ID is generated on first startup
			if err := settingsService.EnsureInstanceID(); err != nil {
				println("Warning: Failed to generate instance ID:", err.Error())
			}
		},
		OnShutdown: appInstance.Shutdown,
		Bind: []interface{}{
			appInstance,
			settingsService,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
