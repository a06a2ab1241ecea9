// Package plugin stores host plugins by name and lets them register the
// channels they own.
//
//	err := plugin.AddPlugin(registrar, textinput.New())
//	plugin.WithPlugin(registrar, func(p *textinput.Plugin) { ... })
//
// A plugin's name is tied to its type: PluginName is called on the zero
// value, so lookups need only the type parameter.
package plugin
