//go:build js && wasm

package main

import (
	"log/slog"
	"os"
	"syscall/js"

	"github.com/cwbudde/algo-synth/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
)

func errValue(err error) any {
	if err != nil {
		return err.Error()
	}
	return js.Null()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		e, err := webdemo.NewEngine(sr, logger)
		if err != nil {
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	api.Set("keyDown", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return false
		}
		return engine.KeyDown(args[0].String())
	}))

	api.Set("keyUp", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.KeyUp(args[0].String())
		return js.Null()
	}))

	api.Set("blur", export(func([]js.Value) any {
		if engine != nil {
			engine.Blur()
		}
		return js.Null()
	}))

	api.Set("applySettings", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.ApplySettingsJSON([]byte(args[0].String())))
	}))

	api.Set("exportPreset", export(func([]js.Value) any {
		if engine == nil {
			return js.Null()
		}
		data, err := engine.SettingsJSON()
		if err != nil {
			return js.Null()
		}
		return string(data)
	}))

	api.Set("importPreset", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.Import([]byte(args[0].String())))
	}))

	api.Set("toggleScale", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return false
		}
		return engine.ToggleScale(args[0].String())
	}))

	api.Set("resetScale", export(func([]js.Value) any {
		if engine != nil {
			engine.ResetScale()
		}
		return js.Null()
	}))

	api.Set("setReverbTime", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.SetReverbTime(args[0].Float()))
	}))

	api.Set("voicePreset", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.VoicePreset(args[0].String()))
	}))

	api.Set("stylePreset", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.StylePreset(args[0].String()))
	}))

	api.Set("keyboard", export(func([]js.Value) any {
		arr := js.Global().Get("Array").New(len(webdemo.Keyboard))
		for i, k := range webdemo.Keyboard {
			item := js.Global().Get("Object").New()
			item.Set("note", k.Note)
			item.Set("key", k.Label)
			item.Set("code", k.Code)
			item.Set("freq", k.Frequency())
			item.Set("black", k.Black)
			arr.SetIndex(i, item)
		}
		return arr
	}))

	// render returns n interleaved stereo samples.
	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		buf := make([]float32, n)
		engine.Render(buf)
		arr := js.Global().Get("Float32Array").New(n)
		for i := 0; i < n; i++ {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	js.Global().Set("AlgoSynth", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
