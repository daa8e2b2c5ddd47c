/*
Package webview is a headless web content view backed by goja.

A View loads local pages (HTML or plain .js) from the web directory or the
bundle, runs their classic scripts after the systemInfo constant and the
bridge client, and exposes window.webkit.messageHandlers.<channel> for every
registered capability. Results are delivered the way an embedded web view
is driven: by evaluating native.done(...) and native.progress(...) in the
page.

Every touch of the JavaScript runtime happens on the view's dispatch loop:
page loads, posted messages, timers and emissions. reLaunch replaces the
runtime with a fresh one for the new page.

# Usage

	view, err := webview.New(host, webview.Config{Info: sysinfo.Default()})
	go view.Run(ctx)
	err = view.Open(ctx, "/index.html")
	v, err := view.Eval(ctx, "document.title")
*/
package webview
