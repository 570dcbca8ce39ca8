package gstreamer

import (
	"fmt"
	"strconv"
	"strings"
)

type Property struct {
	Name  string
	Value string
}

// Element is one plugin instance of the pipeline
type Element struct {
	Factory string
	Name    string

	// kept in insertion order
	properties []Property
}

func (e *Element) Set(name string, value any) *Element {
	var v string
	switch t := value.(type) {
	case string:
		v = t
	case bool:
		v = strconv.FormatBool(t)
	case int:
		v = strconv.Itoa(t)
	case uint:
		v = strconv.FormatUint(uint64(t), 10)
	case int64:
		v = strconv.FormatInt(t, 10)
	default:
		v = fmt.Sprint(t)
	}

	for i := range e.properties {
		if e.properties[i].Name == name {
			e.properties[i].Value = v
			return e
		}
	}
	e.properties = append(e.properties, Property{Name: name, Value: v})

	return e
}

func (e *Element) Get(name string) (string, bool) {
	for _, p := range e.properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (e *Element) Properties() []Property {
	return e.properties
}

// Link joins src to sink, an empty pad lets the launcher pick one.
// Request pad templates like src_%u are requested on use.
type Link struct {
	Src     string
	SrcPad  string
	Sink    string
	SinkPad string
}

type Graph struct {
	elements []*Element
	byName   map[string]*Element
	links    []Link
}

func NewGraph() *Graph {
	return &Graph{byName: map[string]*Element{}}
}

func (g *Graph) Add(factory string, name string) (*Element, error) {
	if factory == "" || name == "" {
		return nil, fmt.Errorf("gstreamer element factory and name required")
	}
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("gstreamer element exists %s", name)
	}

	e := &Element{Factory: factory, Name: name}
	g.elements = append(g.elements, e)
	g.byName[name] = e

	return e, nil
}

func (g *Graph) Element(name string) *Element {
	return g.byName[name]
}

func (g *Graph) Elements() []*Element {
	return g.elements
}

func (g *Graph) Links() []Link {
	return g.links
}

func (g *Graph) LinkPads(src string, srcPad string, sink string, sinkPad string) error {
	if g.byName[src] == nil {
		return fmt.Errorf("gstreamer link unknown element %s", src)
	}
	if g.byName[sink] == nil {
		return fmt.Errorf("gstreamer link unknown element %s", sink)
	}

	g.links = append(g.links, Link{Src: src, SrcPad: srcPad, Sink: sink, SinkPad: sinkPad})

	return nil
}

// LinkMany links elements one after another
func (g *Graph) LinkMany(names ...string) error {
	for i := 1; i < len(names); i++ {
		err := g.LinkPads(names[i-1], "", names[i], "")
		if err != nil {
			return err
		}
	}
	return nil
}

func padRef(element string, pad string) string {
	if strings.Contains(pad, "%") {
		// requested by template, let the launcher pick the index
		pad = ""
	}
	return element + "." + pad
}

// Args renders the graph as gst-launch-1.0 arguments.
//
// Elements are declared first with their properties, then every link is
// written by reference, like "decoder. ! mux.sink_0".
func (g *Graph) Args() []string {
	args := []string{}

	for _, e := range g.elements {
		args = append(args, e.Factory, "name="+e.Name)
		for _, p := range e.properties {
			args = append(args, p.Name+"="+p.Value)
		}
	}

	for _, l := range g.links {
		args = append(args, padRef(l.Src, l.SrcPad), "!", padRef(l.Sink, l.SinkPad))
	}

	return args
}

func (g *Graph) String() string {
	return strings.Join(g.Args(), " ")
}
