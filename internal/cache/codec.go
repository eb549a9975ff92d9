package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/smokesim/internal/domain"
	"github.com/san-kum/smokesim/internal/engine"
)

var (
	ErrBadSnapshot = errors.New("not a smokesim snapshot")

	magic = [4]byte{'S', 'M', 'K', 'C'}
)

const codecVersion = 1

// stateRecord is the fixed-size on-disk form of domain.State.
type stateRecord struct {
	BaseRes, Res, ResMin, ResMax [3]int64
	CellSize                     [3]float64
	Dx, Scale                    float64
	P0, P1, DP0                  [3]float64
	Shift                        [3]int64
	ShiftF, PrevLoc              [3]float64
	Adaptive                     uint8
	AdaptMargin                  int64
	AdaptThreshold               float64
	TotalCells                   int64
	HighRes                      uint8
	Amplify                      int64
	ObMat, IMat                  [16]float64
	HasGrid, HasHigh             uint8
}

type header struct {
	Magic   [4]byte
	Version uint32
}

type gridHeader struct {
	Res [3]int64
	Dx  float64
}

type highHeader struct {
	Res     [3]int64
	Amplify int64
}

// encodeSnapshot writes s in little-endian binary.
func encodeSnapshot(w io.Writer, s *domain.Snapshot) error {
	le := binary.LittleEndian
	if err := binary.Write(w, le, header{Magic: magic, Version: codecVersion}); err != nil {
		return err
	}
	rec := toRecord(s.State)
	rec.HasGrid = flag(s.Grid != nil)
	rec.HasHigh = flag(s.High != nil)
	if err := binary.Write(w, le, rec); err != nil {
		return err
	}

	if g := s.Grid; g != nil {
		if err := binary.Write(w, le, gridHeader{Res: to64(g.Res), Dx: g.Dx}); err != nil {
			return err
		}
		for _, c := range g.Channels() {
			if err := binary.Write(w, le, c.Data); err != nil {
				return fmt.Errorf("channel %s: %w", c.Name, err)
			}
		}
		if err := binary.Write(w, le, g.Obstacle); err != nil {
			return err
		}
	}

	if h := s.High; h != nil {
		if err := binary.Write(w, le, highHeader{Res: to64(h.Res), Amplify: int64(h.Amplify)}); err != nil {
			return err
		}
		for _, c := range h.Channels() {
			if err := binary.Write(w, le, c.Data); err != nil {
				return fmt.Errorf("high resolution channel %s: %w", c.Name, err)
			}
		}
	}
	return nil
}

func decodeSnapshot(r io.Reader) (*domain.Snapshot, error) {
	le := binary.LittleEndian
	var hdr header
	if err := binary.Read(r, le, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != magic {
		return nil, ErrBadSnapshot
	}
	if hdr.Version != codecVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadSnapshot, hdr.Version)
	}

	var rec stateRecord
	if err := binary.Read(r, le, &rec); err != nil {
		return nil, err
	}
	s := &domain.Snapshot{State: fromRecord(rec)}

	if rec.HasGrid != 0 {
		var gh gridHeader
		if err := binary.Read(r, le, &gh); err != nil {
			return nil, err
		}
		g, err := engine.NewGrid(toInt(gh.Res), gh.Dx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		for _, c := range g.Channels() {
			if err := binary.Read(r, le, c.Data); err != nil {
				return nil, fmt.Errorf("channel %s: %w", c.Name, err)
			}
		}
		if err := binary.Read(r, le, g.Obstacle); err != nil {
			return nil, err
		}
		s.Grid = g
	}

	if rec.HasHigh != 0 {
		var hh highHeader
		if err := binary.Read(r, le, &hh); err != nil {
			return nil, err
		}
		block := hh.Amplify + 1
		coarse := [3]int64{hh.Res[0] / block, hh.Res[1] / block, hh.Res[2] / block}
		h, err := engine.NewHighRes(toInt(coarse), int(hh.Amplify))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		for _, c := range h.Channels() {
			if err := binary.Read(r, le, c.Data); err != nil {
				return nil, fmt.Errorf("high resolution channel %s: %w", c.Name, err)
			}
		}
		s.High = h
	}
	return s, nil
}

func toRecord(s domain.State) stateRecord {
	return stateRecord{
		BaseRes:        to64(s.BaseRes),
		Res:            to64(s.Res),
		ResMin:         to64(s.ResMin),
		ResMax:         to64(s.ResMax),
		CellSize:       s.CellSize,
		Dx:             s.Dx,
		Scale:          s.Scale,
		P0:             s.P0,
		P1:             s.P1,
		DP0:            s.DP0,
		Shift:          to64(s.Shift),
		ShiftF:         s.ShiftF,
		PrevLoc:        s.PrevLoc,
		Adaptive:       flag(s.Adaptive),
		AdaptMargin:    int64(s.AdaptMargin),
		AdaptThreshold: s.AdaptThreshold,
		TotalCells:     int64(s.TotalCells),
		HighRes:        flag(s.HighRes),
		Amplify:        int64(s.Amplify),
		ObMat:          s.ObMat,
		IMat:           s.IMat,
	}
}

func fromRecord(r stateRecord) domain.State {
	return domain.State{
		BaseRes:        toInt(r.BaseRes),
		Res:            toInt(r.Res),
		ResMin:         toInt(r.ResMin),
		ResMax:         toInt(r.ResMax),
		CellSize:       mgl64.Vec3(r.CellSize),
		Dx:             r.Dx,
		Scale:          r.Scale,
		P0:             mgl64.Vec3(r.P0),
		P1:             mgl64.Vec3(r.P1),
		DP0:            mgl64.Vec3(r.DP0),
		Shift:          toInt(r.Shift),
		ShiftF:         mgl64.Vec3(r.ShiftF),
		PrevLoc:        mgl64.Vec3(r.PrevLoc),
		Adaptive:       r.Adaptive != 0,
		AdaptMargin:    int(r.AdaptMargin),
		AdaptThreshold: r.AdaptThreshold,
		TotalCells:     int(r.TotalCells),
		HighRes:        r.HighRes != 0,
		Amplify:        int(r.Amplify),
		ObMat:          mgl64.Mat4(r.ObMat),
		IMat:           mgl64.Mat4(r.IMat),
	}
}

func to64(v [3]int) [3]int64 { return [3]int64{int64(v[0]), int64(v[1]), int64(v[2])} }

func toInt(v [3]int64) [3]int { return [3]int{int(v[0]), int(v[1]), int(v[2])} }

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
