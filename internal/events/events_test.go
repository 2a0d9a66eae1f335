package events

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) SessionID() string { return "42" }

func (r *recorder) Send(msg *protocol.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg.String())
	return true
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (r *recorder) last(t *testing.T) string {
	t.Helper()
	msgs := r.all()
	if len(msgs) == 0 {
		t.Fatal("no message sent")
	}
	return msgs[len(msgs)-1]
}

type countingScanner struct{ scans int }

func (s *countingScanner) Scan() int {
	s.scans++
	return 0
}

func setup(t *testing.T, src string) (*dom.Document, *recorder, *countingScanner, *Translator) {
	t.Helper()
	doc, err := dom.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	sc := &countingScanner{}
	tr := New(Config{Document: doc, Outbox: rec, Scanner: sc})
	return doc, rec, sc, tr
}

func TestKeyEvent(t *testing.T) {
	doc, rec, _, tr := setup(t, `<div id="e"></div>`)
	ev := &KeyEvent{Event: Event{TimeStamp: 12.5}, Key: `"`, Code: "Quote", Repeat: true, Modifiers: Modifiers{Shift: true}}
	tr.Key(KeyDown, doc.ElementByID("e"), ev)

	want := `key-down-event{session=42,id=e,timeStamp=12.5,key="\"",code="Quote",repeat=1,shiftKey=1}`
	if got := rec.last(t); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	if !ev.Stopped() || ev.DefaultPrevented() {
		t.Fatal("key event should stop propagation only")
	}
}

func TestMouseCoordinates(t *testing.T) {
	doc, rec, _, tr := setup(t, `
		<div id="outer" style="left: 10px; top: 20px; width: 200px; height: 100px">
			<div id="inner" style="left: 5px; top: 5px; width: 50px; height: 50px"></div>
		</div>`)
	outer := doc.ElementByID("outer")
	outer.Scroll.Height = 400
	outer.ScrollTo(0, 30)

	ev := &MouseEvent{Event: Event{TimeStamp: 1}, Button: 0, Buttons: 1, ClientX: 40, ClientY: 60, ScreenX: 140, ScreenY: 160}
	tr.Mouse(Click, doc.ElementByID("inner"), ev)

	// x = 40 + 0 - (5 + 10), y = 60 + 30 - (5 + 20)
	want := "click-event{session=42,id=inner,timeStamp=1,buttons=1,x=25,clientX=40,y=65,clientY=60,screenX=140,screenY=160}"
	if got := rec.last(t); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	if !ev.DefaultPrevented() {
		t.Fatal("click should prevent default")
	}

	ev = &MouseEvent{ClientY: 5, Modifiers: Modifiers{Ctrl: true, Meta: true}}
	tr.Mouse(MouseMove, doc.ElementByID("inner"), ev)
	if got := rec.last(t); strings.Contains(got, "x=") || !strings.Contains(got, "ctrlKey=1,metaKey=1") {
		t.Fatalf("unexpected move message %s", got)
	}
	if ev.DefaultPrevented() {
		t.Fatal("mouse move must not prevent default")
	}
}

func TestPointerEvent(t *testing.T) {
	doc, rec, _, tr := setup(t, `<div id="p"></div>`)
	ev := &PointerEvent{
		MouseEvent:  MouseEvent{ClientX: 3},
		PointerID:   7,
		Pressure:    0.5,
		PointerType: "pen",
		IsPrimary:   true,
	}
	tr.Pointer(PointerDown, doc.ElementByID("p"), ev)
	want := "pointer-down{session=42,id=p,x=3,clientX=3,pointerId=7,pressure=0.5,pointerType=pen,isPrimary=1}"
	if got := rec.last(t); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestTouchEvent(t *testing.T) {
	doc, rec, _, tr := setup(t, `<div id="t" style="left: 10px; top: 10px; width: 10px; height: 10px"></div>`)
	ev := &TouchEvent{Touches: []Touch{{Identifier: 0, ClientX: 15, ClientY: 12, Force: 1}}}
	tr.Touch(TouchStart, doc.ElementByID("t"), ev)
	want := "touch-start{session=42,id=t,touches=[touch{identifier=0,x=5,y=2,clientX=15,clientY=12,screenX=0,screenY=0,radiusX=0,radiusY=0,rotationAngle=0,force=1}]}"
	if got := rec.last(t); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	tr.Touch(TouchEnd, doc.ElementByID("t"), &TouchEvent{Modifiers: Modifiers{Alt: true}})
	if got := rec.last(t); got != "touch-end{session=42,id=t,altKey=1}" {
		t.Fatalf("got %s", got)
	}
}

func TestMediaEvents(t *testing.T) {
	doc, rec, _, tr := setup(t, `<video id="v"></video>`)
	v := doc.ElementByID("v")
	v.Media.Volume = 0.75
	tr.VolumeChanged(v)
	if got := rec.last(t); got != "volume-changed-event{session=42,id=v,value=0.75}" {
		t.Fatalf("got %s", got)
	}
	v.Media.Muted = true
	tr.VolumeChanged(v)
	if got := rec.last(t); got != "volume-changed-event{session=42,id=v,value=0}" {
		t.Fatalf("got %s", got)
	}
	tr.TimeUpdated(v)
	if got := rec.last(t); got != "time-update-event{session=42,id=v,value=0}" {
		t.Fatalf("got %s", got)
	}
	v.Media.Error = &dom.MediaError{Code: 4, Message: "bad `source`"}
	tr.PlayerError(v)
	if got := rec.last(t); got != "player-error-event{session=42,id=v,code=4,message=`bad 'source'`}" {
		t.Fatalf("got %s", got)
	}
	tr.Player(v, "ended-event")
	if got := rec.last(t); got != "ended-event{session=42,id=v}" {
		t.Fatalf("got %s", got)
	}
}

func TestTransitionAndAnimation(t *testing.T) {
	doc, rec, _, tr := setup(t, `<div id="a"></div>`)
	a := doc.ElementByID("a")
	tr.Transition(TransitionEnd, a, &TransitionEvent{PropertyName: "opacity"})
	if got := rec.last(t); got != "transition-end-event{session=42,id=a,property=opacity}" {
		t.Fatalf("got %s", got)
	}
	tr.Animation(AnimationIteration, a, &AnimationEvent{})
	if got := rec.last(t); got != "animation-iteration-event{session=42,id=a}" {
		t.Fatalf("got %s", got)
	}
	tr.StackTransitionEnd("stack", "transform", &Event{})
	if got := rec.last(t); got != "transition-end-event{session=42,id=stack,property=transform}" {
		t.Fatalf("got %s", got)
	}
}

func TestActivateTab(t *testing.T) {
	doc, rec, sc, tr := setup(t, `
		<div id="tabs" data-current="tabs-0" data-activeTabStyle="on" data-inactiveTabStyle="off">
			<div id="tabs-0" class="on" data-view="page0"></div>
			<div id="tabs-1" class="off" data-view="page1"></div>
		</div>
		<div id="page0"></div>
		<div id="page1" style="display: none"></div>`)

	ev := &Event{}
	tr.TabClick("tabs", 1, ev)
	if doc.ElementByID("tabs-1").ClassName() != "on" || doc.ElementByID("tabs-0").ClassName() != "off" {
		t.Fatal("tab classes not swapped")
	}
	if doc.ElementByID("page0").Style("display") != "none" || doc.ElementByID("page1").Style("display") != "" {
		t.Fatal("pages not swapped")
	}
	if v, _ := doc.ElementByID("tabs").Attr("data-current"); v != "tabs-1" {
		t.Fatalf("data-current = %s", v)
	}
	if got := rec.last(t); got != "tabClick{session=42,id=tabs,number=1}" {
		t.Fatalf("got %s", got)
	}
	if sc.scans != 1 || !ev.DefaultPrevented() {
		t.Fatalf("scans = %d, prevented = %v", sc.scans, ev.DefaultPrevented())
	}

	tr.ActivateTab("tabs", 1)
	if sc.scans != 1 {
		t.Fatal("activating the current tab should do nothing")
	}

	tr.TabKeyClick("tabs", 0, &KeyEvent{KeyCode: 13})
	if v, _ := doc.ElementByID("tabs").Attr("data-current"); v != "tabs-0" {
		t.Fatal("Enter on a tab should activate it")
	}
}

func TestRadioButtons(t *testing.T) {
	doc, rec, _, tr := setup(t, `
		<div id="group">
			<div id="r1"></div><div id="r1mark"></div>
			<div id="r2"></div><div id="r2mark"></div>
		</div>`)
	tr.SelectRadioButton("r1")
	tr.SelectRadioButton("r2")
	if doc.ElementByID("r1mark").Style("visibility") != "hidden" || doc.ElementByID("r2mark").Style("visibility") != "visible" {
		t.Fatal("marks not updated")
	}
	if got := rec.last(t); got != "radioButtonSelected{session=42,id=group,radioButton=r2}" {
		t.Fatalf("got %s", got)
	}
	n := len(rec.all())
	tr.SelectRadioButton("r2")
	if len(rec.all()) != n {
		t.Fatal("re-selecting the checked button should not report")
	}
	tr.UnselectRadioButtons("group")
	if doc.ElementByID("group").HasAttr("data-current") {
		t.Fatal("data-current not removed")
	}
	if got := rec.last(t); got != "radioButtonUnselected{session=42,id=group}" {
		t.Fatalf("got %s", got)
	}
}

func TestControlsReporting(t *testing.T) {
	doc, rec, _, tr := setup(t, `<input id="in"><select id="sel"><option>a</option></select><div id="close" data-popupId="menu"></div>`)

	in := doc.ElementByID("in")
	in.Value = `a "b" \c`
	tr.TextChanged(in)
	if got := rec.last(t); got != `textChanged{session=42,id=in,text="a \"b\" \\c"}` {
		t.Fatalf("got %s", got)
	}
	tr.DropDownChanged(doc.ElementByID("sel"), &Event{})
	if got := rec.last(t); got != "itemSelected{session=42,id=sel,number=0}" {
		t.Fatalf("got %s", got)
	}
	tr.ClickClosePopup(doc.ElementByID("close"), &Event{})
	if got := rec.last(t); got != "clickClosePopup{session=42,id=menu}" {
		t.Fatalf("got %s", got)
	}
	tr.Focus(in, &Event{})
	if doc.ActiveElement() != in || rec.last(t) != "focus-event{session=42,id=in}" {
		t.Fatal("focus not applied")
	}
	tr.Blur(in, &Event{})
	if doc.ActiveElement() != nil || rec.last(t) != "lost-focus-event{session=42,id=in}" {
		t.Fatal("blur not applied")
	}
}

const gridList = `
	<div id="list" data-current="list-0" style="left: 0px; top: 0px; width: 200px; height: 150px">
		<div id="list-0" class="ruiListItemSelected" style="left: 0px; top: 0px; width: 100px; height: 100px"></div>
		<div id="list-1" style="left: 100px; top: 0px; width: 100px; height: 100px"></div>
		<div id="list-2" style="left: 0px; top: 100px; width: 100px; height: 100px"></div>
		<div id="list-3" style="left: 100px; top: 100px; width: 100px; height: 100px"></div>
	</div>`

func TestListArrowDownInGrid(t *testing.T) {
	doc, rec, sc, tr := setup(t, gridList)
	list := doc.ElementByID("list")
	list.Scroll.Height = 200

	ev := &KeyEvent{Key: "ArrowDown"}
	tr.ListKeyDown(list, ev)

	if v, _ := list.Attr("data-current"); v != "list-2" {
		t.Fatalf("data-current = %s, want list-2", v)
	}
	if doc.ElementByID("list-0").HasClass(SelectedItemClass) || !doc.ElementByID("list-2").HasClass(SelectedItemClass) {
		t.Fatal("selection classes not moved")
	}
	if got := rec.last(t); got != "itemSelected{session=42,id=list,number=2}" {
		t.Fatalf("got %s", got)
	}
	if list.Scroll.Y != 50 {
		t.Fatalf("scroll y = %v, want 50", list.Scroll.Y)
	}
	if sc.scans != 1 || !ev.Stopped() || !ev.DefaultPrevented() {
		t.Fatal("selection should scan and consume the key")
	}

	tr.ListKeyDown(list, &KeyEvent{Key: "ArrowDown"})
	if v, _ := list.Attr("data-current"); v != "list-2" {
		t.Fatal("moving past the last row should keep the selection")
	}

	tr.ListKeyDown(list, &KeyEvent{Key: "Enter"})
	if got := rec.last(t); got != "itemClick{session=42,id=list}" {
		t.Fatalf("got %s", got)
	}

	ev = &KeyEvent{Key: "a"}
	tr.ListKeyDown(list, ev)
	if ev.Stopped() {
		t.Fatal("unhandled keys should propagate")
	}
}

func TestListFocusStyles(t *testing.T) {
	doc, _, _, tr := setup(t, gridList)
	list := doc.ElementByID("list")
	item := doc.ElementByID("list-0")

	tr.ListFocus(list)
	if !item.HasClass(FocusedItemClass) || item.HasClass(SelectedItemClass) {
		t.Fatal("focus style not applied")
	}
	tr.ListBlur(list)
	if item.HasClass(FocusedItemClass) || !item.HasClass(SelectedItemClass) {
		t.Fatal("blur style not applied")
	}

	doc.SetActiveElement(list)
	tr.ListKeyDown(list, &KeyEvent{KeyCode: 39})
	if !doc.ElementByID("list-1").HasClass(FocusedItemClass) {
		t.Fatal("item selected in a focused list should get the focused style")
	}
}

func TestListItemClick(t *testing.T) {
	doc, rec, _, tr := setup(t, gridList)
	tr.ListItemClick(doc.ElementByID("list-3"), &Event{})
	msgs := rec.all()
	if len(msgs) != 2 || msgs[0] != "itemSelected{session=42,id=list,number=3}" || msgs[1] != "itemClick{session=42,id=list}" {
		t.Fatalf("messages = %v", msgs)
	}
	tr.ListItemClick(doc.ElementByID("list-3"), &Event{})
	if len(rec.all()) != 3 {
		t.Fatal("clicking the selected item should only report itemClick")
	}
}

func TestDragResize(t *testing.T) {
	doc, rec, sc, tr := setup(t, `<div id="view" style="width: 100px; height: 50px"><div id="handle"></div></div>`)
	s := tr.StartResize(doc.ElementByID("handle"), 1, -1, &MouseEvent{ClientX: 100, ClientY: 50})
	if s == nil || s.Target.ID() != "view" || s.StartWidth != 100 {
		t.Fatalf("session = %+v", s)
	}

	tr.ResizeMove(s, &MouseEvent{ClientX: 120.5, ClientY: 60})
	msgs := rec.all()
	if msgs[0] != "widthChanged{session=42,id=view,width=120.5px}" || msgs[1] != "heightChanged{session=42,id=view,height=40px}" {
		t.Fatalf("messages = %v", msgs)
	}

	tr.ResizeMove(s, &MouseEvent{ClientX: -500, ClientY: 500})
	if w, h := doc.ElementByID("view").Style("width"), doc.ElementByID("view").Style("height"); w != "1px" || h != "1px" {
		t.Fatalf("size = %s x %s, want clamped to 1px", w, h)
	}
	if sc.scans != 2 {
		t.Fatalf("scans = %d, want 2", sc.scans)
	}
	tr.ResizeEnd(s, &MouseEvent{})

	if tr.StartResize(doc.CreateElement("div"), 1, 1, &MouseEvent{}) != nil {
		t.Fatal("detached handle should not start a drag")
	}
}

func TestFiles(t *testing.T) {
	doc, rec, _, tr := setup(t, `<input id="fp" type="file">`)
	fp := doc.ElementByID("fp")
	fp.Files = []dom.File{{Name: "a.txt", LastModified: 1000, Size: 2, MimeType: "text/plain", Data: []byte("hi")}}

	tr.FileSelected(fp)
	if got := rec.last(t); got != `fileSelected{session=42,id=fp,files=[_{name="a.txt",last-modified=1000,size=2,mime-type="text/plain"}]}` {
		t.Fatalf("got %s", got)
	}

	tr.LoadSelectedFile("fp", 0)
	tr.Wait()
	if got := rec.last(t); got != "fileLoaded{session=42,id=fp,index=0,name=\"a.txt\",last-modified=1000,size=2,mime-type=\"text/plain\",data=`data:text/plain;base64,aGk=`}" {
		t.Fatalf("got %s", got)
	}

	tr.LoadSelectedFile("fp", 3)
	if got := rec.last(t); got != "fileLoadingError{session=42,id=fp,index=3,error=`File not found`}" {
		t.Fatalf("got %s", got)
	}
	tr.LoadSelectedFile("nope", 0)
	if got := rec.last(t); got != "fileLoadingError{session=42,id=nope,index=0,error=`Invalid FilePicker id`}" {
		t.Fatalf("got %s", got)
	}

	fp.Files = []dom.File{{Name: "gone", Path: "/nonexistent/file"}}
	tr.LoadSelectedFile("fp", 0)
	tr.Wait()
	if got := rec.last(t); !strings.HasPrefix(got, "fileLoadingError{session=42,id=fp,index=0,error=`") {
		t.Fatalf("got %s", got)
	}
}

func TestLoadImage(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.White)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	loader, err := NewImageLoader(srv.Client(), srv.URL+"/app/")
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := dom.Parse("")
	rec := &recorder{}
	tr := New(Config{Document: doc, Outbox: rec, Images: loader})

	tr.LoadImage("/img.png")
	tr.Wait()
	if got := rec.last(t); got != `imageLoaded{session=42,url="/img.png",width=3,height=2}` {
		t.Fatalf("got %s", got)
	}
	tr.LoadImage("/img.png")
	tr.Wait()
	mu.Lock()
	n := hits
	mu.Unlock()
	if len(rec.all()) != 1 || n != 1 {
		t.Fatal("cached image loaded twice")
	}
	if cfg, ok := loader.Cached("/img.png"); !ok || cfg.Width != 3 {
		t.Fatal("image size not cached")
	}

	tr.LoadImage("/missing.png")
	tr.Wait()
	if got := rec.last(t); !strings.HasPrefix(got, `imageError{session=42,url="/missing.png",message="fetch image: 404`) {
		t.Fatalf("got %s", got)
	}
}
