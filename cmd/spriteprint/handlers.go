package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/hako/durafmt"

	"badc0de.net/pkg/go-tibia-assets/appearances"
	"badc0de.net/pkg/go-tibia-assets/imageprint"
	"badc0de.net/pkg/go-tibia-assets/things"
)

func sprHandler(th *things.Things, pr *imageprint.Printer, id uint32) error {
	s, err := th.SpriteRGBA(id)
	if err != nil {
		glog.Errorf("sprite %d: %v", id, err)
		return err
	}
	return out(pr, s.Image(), fmt.Sprintf("sprite-%d.png", id))
}

func appearanceHandler(th *things.Things, pr *imageprint.Printer, id uint32) error {
	kind, err := appearances.ParseKind(*kindName)
	if err != nil {
		glog.Errorf("%v", err)
		return err
	}

	var sid uint32
	var ok bool
	if *seed >= 0 {
		sid, ok = th.SpriteIDAtSeeded(kind, id, *timeMs, *seed)
	} else {
		sid, ok = th.SpriteIDAt(kind, id, *timeMs)
	}
	if !ok {
		err := fmt.Errorf("%v %d has no sprite", kind, id)
		glog.Errorf("%v", err)
		return err
	}

	if ix := th.Appearances(); ix != nil {
		if info, ok := ix.Info(kind, id); ok && info.PhaseCount() > 1 {
			cycle := time.Duration(info.CycleMs()) * time.Millisecond
			fmt.Fprintf(os.Stderr, "%v %d: %d phases, cycle %s, phase %d at %dms\n",
				kind, id, info.PhaseCount(), durafmt.Parse(cycle), info.PhaseAt(*timeMs), *timeMs)
		}
	}
	fmt.Fprintf(os.Stderr, "%v %d: sprite %d\n", kind, id, sid)
	return sprHandler(th, pr, sid)
}

func itemHandler(th *things.Things, pr *imageprint.Printer, id uint16) error {
	var frame int
	if items := th.Items(); items != nil {
		if item, ok := items.Item(id); ok {
			frame = item.FrameAt(*timeMs)
		}
	}
	img, err := th.ItemFrame(id, frame, *patternX, *patternY, *patternZ)
	if err != nil {
		glog.Errorf("item %d: %v", id, err)
		return err
	}
	return out(pr, img, fmt.Sprintf("item-%d.png", id))
}
