// Package settings owns the application's Settings value: its string
// encoding, its one-time load, and every mutation applied to it.
//
// # Encoding
//
// Settings are stored as one flat JSON object under config.KeySettings:
//
//	{"deviceName":"Bob-PC","theme":"dark"}
//
// Missing keys take their default, unknown keys are ignored and anything that
// does not decode as a whole yields Defaults(). Decode never fails.
//
// # Coordinator
//
// A Coordinator loads the stored value once, in the background, as soon as it
// is created. Mutations may be called at any time; calls made before the load
// completes wait and are applied afterwards, in call order, on top of the
// loaded value:
//
//	coord, _ := settings.New(settings.Options{
//	    Store:       store,
//	    Startup:     startup,
//	    ContextMenu: menu,
//	})
//	defer coord.Close()
//
//	coord.SetDeviceName(ctx, "Bob-PC")
//	coord.ToggleLaunchAtStartup(ctx) // persists, then enables the startup entry
//
// Every mutation is persisted. Save failures and platform adapter failures are
// logged and otherwise ignored: the in-memory value stays authoritative and
// the next mutation saves the then-current value again.
//
// # Observing
//
// Subscribe returns a latest-wins stream of versioned snapshots. Snapshots are
// values; observers cannot change the coordinator's state through them.
package settings
